package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumatch/internal/config"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 30 * time.Second

// Start runs the server until ctx is cancelled or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	if err := s.startCatalogWatcher(); err != nil {
		return err
	}

	if err := s.startVaultWatcher(); err != nil {
		s.stopWatchers()
		return err
	}

	s.displayServerInfo(httpServer)

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// Handler returns the full handler chain, instrumented when observability
// is enabled.
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// configureTLS loads certificates for server and mutual modes and watches
// them for rotation.
func (s *Server) configureTLS(httpServer *http.Server) error {
	if !s.TLSConfig.Enabled() {
		return nil
	}

	tlsConfig, certs, err := buildTLSConfig(s.TLSConfig, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	s.certs = certs

	watcher := NewFileWatcher("certificates",
		[]string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile},
		time.Second, certs.Reload, s.Logger)
	if err := watcher.Start(); err != nil {
		s.Logger.Warn("TLS certificate auto-reload disabled", "error", err)
		return nil
	}
	s.certWatcher = watcher
	return nil
}

func (s *Server) startCatalogWatcher() error {
	if !s.AppConfig.Catalog.Watch {
		return nil
	}
	watcher := NewCatalogWatcher(s.Catalog, s.AppConfig.Catalog.WatchDebounce, s.Logger)
	if watcher == nil {
		s.Logger.Warn("Catalog watching is only supported for the file source",
			"source", s.Catalog.Source().Name())
		return nil
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start catalog watcher: %w", err)
	}
	s.catalogWatcher = watcher
	return nil
}

func (s *Server) startVaultWatcher() error {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || !vaultCfg.Watch.Enabled || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.Watch.PollInterval, 0, s.SetAPIKeys, s.Logger)
	// the first poll records the version already applied at startup
	if err := watcher.poll(); err != nil {
		s.Logger.LogError(err, "Initial Vault API key check failed")
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	s.vaultWatcher = watcher
	return nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
	case <-ctx.Done():
		s.Logger.Info("Context cancelled, starting graceful shutdown")
	}

	return s.performGracefulShutdown(server)
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) stopWatchers() {
	for _, w := range []*FileWatcher{s.catalogWatcher, s.certWatcher} {
		if w == nil {
			continue
		}
		if err := w.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop file watcher")
		}
	}
	if s.vaultWatcher != nil {
		if err := s.vaultWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop Vault watcher")
		}
	}
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
