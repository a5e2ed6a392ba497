package cli

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/observability"
	"resumatch/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for resume analysis",
	Long: `Start an HTTP server that analyzes resumes against the job catalog.

Available endpoints:
- POST /api/upload: Analyze an uploaded resume (multipart field "resume")
- POST /api/match: Match resume text, or a skill list, against the catalog
- POST /api/skills: Extract skills from resume text
- GET /api/catalog: Describe the loaded catalog
- POST /api/catalog/reload: Reload the catalog from its source
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	registerServeFlags(serveCmd.Flags())
}

func registerServeFlags(flags *pflag.FlagSet) {
	flags.StringP("port", "p", "", "Port to listen on (default from config)")
	flags.String("host", "", "Host to bind to (default from config)")
	flags.String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	flags.String("cert-file", "", "Server certificate file (PEM, overrides config)")
	flags.String("key-file", "", "Server private key file (PEM, overrides config)")
	flags.String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	flags.Bool("watch", false, "Reload the catalog when its files change (overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
// Configuration is loaded before flags are parsed, so flags are applied here
// rather than through viper.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	stringFlags := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("watch") {
		watch, err := flags.GetBool("watch")
		if err != nil {
			return err
		}
		cfg.Catalog.Watch = watch
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := applyServeFlags(cmd.Flags(), cfg); err != nil {
		return err
	}

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	a, err := newApp(cmd.Context(), cfg, logger, om)
	if err != nil {
		return err
	}
	defer a.Close(logger)

	srv := server.NewServer(cfg, a.analyzer, a.store, om, Version, logger)
	if a.ocr != nil {
		srv.OCR = a.ocr
	}
	return srv.Start(cmd.Context())
}
