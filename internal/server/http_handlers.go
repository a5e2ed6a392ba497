package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"resumatch/internal/analyzer"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// multipartMemory is the part of an upload kept in memory before spilling
// to temporary files.
const multipartMemory = 10 << 20

// uploadHandler analyzes a résumé sent as multipart field "resume".
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large", fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, "No file uploaded", "expected multipart/form-data with a 'resume' file", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	files := r.MultipartForm.File["resume"]
	if len(files) == 0 {
		// a file input submitted without a selection arrives as a plain value
		if _, ok := r.MultipartForm.Value["resume"]; ok {
			writeErrorResponse(w, "No selected file", "", http.StatusBadRequest)
			return
		}
		writeErrorResponse(w, "No file uploaded", "", http.StatusBadRequest)
		return
	}
	header := files[0]
	if header.Filename == "" {
		writeErrorResponse(w, "No selected file", "", http.StatusBadRequest)
		return
	}

	limit, err := parseLimit(r.FormValue("limit"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		s.writeAppError(w, r, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to open uploaded file", err))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeAppError(w, r, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded file", err))
		return
	}

	s.Logger.Debug("Analyzing uploaded resume",
		"filename", header.Filename,
		"size", len(data),
		"request_id", requestID(r.Context()))

	result, err := s.Analyzer.Analyze(r.Context(), header.Filename, data, limit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	result.RequestID = requestID(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// matchHandler analyzes plain text, or matches a given skill list directly.
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	var req types.MatchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid match request", err))
		return
	}

	var (
		result *types.AnalysisResult
		err    error
	)
	switch {
	case len(req.Skills) > 0:
		var recs []types.Recommendation
		recs, err = s.Analyzer.MatchSkills(r.Context(), req.Skills, req.Limit)
		if err == nil {
			result = &types.AnalysisResult{
				ResumeText:         analyzer.Preview(req.Text, s.AppConfig.App.PreviewLength),
				ExtractedSkills:    req.Skills,
				JobRecommendations: recs,
			}
		}
	case strings.TrimSpace(req.Text) != "":
		result, err = s.Analyzer.AnalyzeText(r.Context(), analyzer.OriginText, req.Text, req.Limit)
	default:
		err = errors.NewValidationError(errors.ErrCodeInvalidRequest, "either text or skills is required", nil)
	}
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	result.RequestID = requestID(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// skillsHandler returns the skills found in plain text.
func (s *Server) skillsHandler(w http.ResponseWriter, r *http.Request) {
	var req types.SkillsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "text is required", err))
		return
	}

	result, err := s.Analyzer.SkillsFromText(req.Text)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	info, err := s.Analyzer.Catalog()
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// reloadHandler forces a catalog reload. On failure the previous catalog
// keeps serving and the error is reported.
func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Catalog.Reload(r.Context()); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.catalogHandler(w, r)
}

// healthHandler reports healthy once a catalog is loaded.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	catalogStats := s.Catalog.Stats()
	response := map[string]any{
		"status":  "healthy",
		"service": "resumatch",
		"version": s.Version,
		"catalog": map[string]any{
			"loaded":          catalogStats.Loaded,
			"source":          catalogStats.Source,
			"vocabulary_size": catalogStats.Vocabulary,
			"job_count":       catalogStats.Jobs,
		},
	}
	if s.OCR != nil {
		response["ocr"] = s.OCR.Stats()
	}

	status := http.StatusOK
	if !catalogStats.Loaded {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    len(s.keys()),
		},
		"catalog": s.Catalog.Stats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	watchers := map[string]any{}
	if s.catalogWatcher != nil {
		watchers["catalog"] = map[string]any{
			"running": s.catalogWatcher.IsRunning(),
			"files":   s.catalogWatcher.WatchedFiles(),
		}
	}
	if s.certWatcher != nil {
		watchers["certificates"] = map[string]any{
			"running": s.certWatcher.IsRunning(),
			"files":   s.certWatcher.WatchedFiles(),
		}
	}
	if s.vaultWatcher != nil {
		watchers["vault"] = s.vaultWatcher.Status()
	}
	if len(watchers) > 0 {
		response["watchers"] = watchers
	}

	writeJSON(w, http.StatusOK, response)
}

// parseLimit reads the optional limit form value.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("limit must be a non-negative integer, got %q", raw), err)
	}
	return limit, nil
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";"); strings.TrimSpace(mediaType) != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// statusForError maps an application error type to an HTTP status.
func statusForError(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		if appErr.Code == errors.ErrCodeFileTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeCatalog:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError logs err and writes it as an ErrorResponse. Internal
// failures do not leak their cause to the client.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	s.Logger.LogError(err, "Request failed",
		"endpoint", r.URL.Path,
		"status", status,
		"request_id", requestID(r.Context()))

	response := ErrorResponse{Error: "Internal server error"}
	if appErr, ok := errors.AsAppError(err); ok && status != http.StatusInternalServerError {
		response = ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Context,
		}
		if appErr.Cause != nil {
			response.Message = appErr.Cause.Error()
		}
	}
	writeJSON(w, status, response)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
