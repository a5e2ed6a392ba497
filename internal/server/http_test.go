package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/analyzer"
	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/types"
)

const (
	testSkills = "python\nsql\nmachine learning\ndocker\nc++\n"
	testJobs   = "Job Role,Required Skills\n" +
		"Data Scientist,python;machine learning;statistics\n" +
		"Backend Engineer,docker;python;sql\n" +
		"Systems Programmer,c++;linux\n" +
		"Designer,figma\n"
	testResume = "Experienced in Python, SQL and Docker. Some machine learning."
)

type testServer struct {
	*Server
	handler  http.Handler
	jobsPath string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	dir := t.TempDir()
	skillsPath := filepath.Join(dir, "skills.txt")
	jobsPath := filepath.Join(dir, "jobs.csv")
	require.NoError(t, os.WriteFile(skillsPath, []byte(testSkills), 0600))
	require.NoError(t, os.WriteFile(jobsPath, []byte(testJobs), 0600))

	cfg := &config.Config{}
	if mutate != nil {
		mutate(cfg)
	}

	store := catalog.NewStore(catalog.NewFileSource(skillsPath, jobsPath, false, nil), nil)
	require.NoError(t, store.Reload(context.Background()))
	svc := analyzer.New(extract.NewRegistry(nil), store, cfg, nil)

	s := NewServer(cfg, svc, store, nil, "test", nil)
	t.Cleanup(s.cleanupRateLimiter)
	return &testServer{Server: s, handler: s.Handler(), jobsPath: jobsPath}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, field, filename, content string, extra map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUploadHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "resume", "resume.txt", testResume, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	result := decode[types.AnalysisResult](t, rec)
	assert.Equal(t, testResume, result.ResumeText)
	assert.Equal(t, []string{"Docker", "Machine learning", "Python", "Sql"}, result.ExtractedSkills)
	require.Len(t, result.JobRecommendations, 4)
	assert.Equal(t, "Backend Engineer", result.JobRecommendations[0].Role)
	assert.Equal(t, rec.Header().Get(requestIDHeader), result.RequestID)
	_, err := uuid.Parse(result.RequestID)
	assert.NoError(t, err)
}

func TestUploadHandlerLimit(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(uploadRequest(t, "resume", "resume.txt", testResume, map[string]string{"limit": "2"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[types.AnalysisResult](t, rec).JobRecommendations, 2)

	rec = ts.do(uploadRequest(t, "resume", "resume.txt", testResume, map[string]string{"limit": "many"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidRequest, decode[ErrorResponse](t, rec).Code)
}

func TestUploadHandlerErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name      string
		req       func() *http.Request
		wantCode  int
		wantError string
	}{
		{
			name:      "missing field",
			req:       func() *http.Request { return uploadRequest(t, "", "", "", map[string]string{"other": "x"}) },
			wantCode:  http.StatusBadRequest,
			wantError: "No file uploaded",
		},
		{
			name:      "empty filename",
			req:       func() *http.Request { return uploadRequest(t, "resume", "", "", nil) },
			wantCode:  http.StatusBadRequest,
			wantError: "No selected file",
		},
		{
			name: "not multipart",
			req: func() *http.Request {
				return jsonRequest(t, http.MethodPost, "/api/upload", map[string]string{"text": "x"})
			},
			wantCode:  http.StatusBadRequest,
			wantError: "No file uploaded",
		},
		{
			name:      "unsupported type",
			req:       func() *http.Request { return uploadRequest(t, "resume", "resume.exe", "MZ", nil) },
			wantCode:  http.StatusBadRequest,
			wantError: "unsupported file type",
		},
		{
			name:      "invalid utf-8",
			req:       func() *http.Request { return uploadRequest(t, "resume", "resume.txt", "\xff\xfe\xfd", nil) },
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "text file is not valid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.req())
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantError, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestMatchHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("text", func(t *testing.T) {
		rec := ts.do(jsonRequest(t, http.MethodPost, "/api/match", types.MatchRequest{Text: testResume, Limit: 1}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		result := decode[types.AnalysisResult](t, rec)
		require.Len(t, result.JobRecommendations, 1)
		assert.Equal(t, "Backend Engineer", result.JobRecommendations[0].Role)
		assert.NotEmpty(t, result.RequestID)
	})

	t.Run("skills bypass extraction", func(t *testing.T) {
		req := types.MatchRequest{Text: "nothing relevant", Skills: []string{"c++", "linux"}}
		rec := ts.do(jsonRequest(t, http.MethodPost, "/api/match", req))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		result := decode[types.AnalysisResult](t, rec)
		assert.Equal(t, []string{"c++", "linux"}, result.ExtractedSkills)
		require.NotEmpty(t, result.JobRecommendations)
		assert.Equal(t, "Systems Programmer", result.JobRecommendations[0].Role)
		assert.InDelta(t, 100.0, result.JobRecommendations[0].MatchPercent, 1e-9)
	})

	t.Run("neither text nor skills", func(t *testing.T) {
		rec := ts.do(jsonRequest(t, http.MethodPost, "/api/match", types.MatchRequest{Text: "   "}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidRequest, decode[ErrorResponse](t, rec).Code)
	})

	t.Run("negative limit", func(t *testing.T) {
		rec := ts.do(jsonRequest(t, http.MethodPost, "/api/match", types.MatchRequest{Text: testResume, Limit: -1}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{"text":"python"}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := ts.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Message, "application/json")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{"text":`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := ts.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Message, "failed to parse JSON")
	})
}

func TestSkillsHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/skills", types.SkillsRequest{Text: "C++ and docker"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"C++", "Docker"}, decode[types.SkillsResult](t, rec).Skills)

	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/skills", types.SkillsRequest{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogHandlers(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[types.CatalogInfo](t, rec)
	assert.Equal(t, "file", info.Source)
	assert.Equal(t, 5, info.VocabularySize)
	assert.Equal(t, 4, info.JobCount)

	require.NoError(t, os.WriteFile(ts.jobsPath, []byte("Job Role,Required Skills\nDesigner,figma\n"), 0600))
	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/catalog/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[types.CatalogInfo](t, rec).JobCount)

	// a broken file keeps the previous catalog
	require.NoError(t, os.WriteFile(ts.jobsPath, []byte("Job Role,Required Skills\n,python\n"), 0600))
	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/catalog/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[types.CatalogInfo](t, rec).JobCount)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/catalog/reload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])

	unloaded := catalog.NewStore(catalog.NewFileSource("", "", true, nil), nil)
	s := NewServer(&config.Config{}, analyzer.New(extract.NewRegistry(nil), unloaded, nil, nil), unloaded, nil, "test", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.ErrCodeCatalogUnavailable, decode[ErrorResponse](t, rec).Code)
}

func TestStatsHandler(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5, ByIP: true}
	})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Contains(t, body, "catalog")
	limiting, ok := body["rate_limiting"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 60.0, limiting["rate_per_minute"], 1e-9)
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.APIKeys = []string{"secret-key-123456"}
	})

	catalogRequest := func(header, value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
		if header != "" {
			req.Header.Set(header, value)
		}
		return req
	}

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong", http.StatusUnauthorized},
		{"header key", "X-API-Key", "secret-key-123456", http.StatusOK},
		{"bearer token", "Authorization", "Bearer secret-key-123456", http.StatusOK},
		{"basic auth is not accepted", "Authorization", "Basic secret-key-123456", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(catalogRequest(tt.header, tt.value))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("health is public", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rotated keys", func(t *testing.T) {
		ts.SetAPIKeys([]string{"rotated-key-abcdef"})
		assert.Equal(t, http.StatusUnauthorized, ts.do(catalogRequest("X-API-Key", "secret-key-123456")).Code)
		assert.Equal(t, http.StatusOK, ts.do(catalogRequest("X-API-Key", "rotated-key-abcdef")).Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	})

	req := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
		r.RemoteAddr = ip + ":4321"
		return r
	}

	assert.Equal(t, http.StatusOK, ts.do(req("10.0.0.1")).Code)
	rec := ts.do(req("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decode[ErrorResponse](t, rec).Error)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, ts.do(req("10.0.0.2")).Code)
}

func TestRequestSizeLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.MaxRequestSize = 16
	})

	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/skills", types.SkillsRequest{Text: strings.Repeat("python ", 10)}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "too large")
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	assert.Equal(t, id, ts.do(req).Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	got := ts.do(req).Header().Get(requestIDHeader)
	assert.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"too large", errors.NewValidationError(errors.ErrCodeFileTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{"extraction", errors.NewExtractionError(errors.ErrCodeEmptyDocument, "empty", nil), http.StatusUnprocessableEntity},
		{"catalog", errors.NewCatalogError(errors.ErrCodeCatalogUnavailable, "none", nil), http.StatusServiceUnavailable},
		{"internal", errors.NewInternalError("X", "boom", nil), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
