package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	tlsmanager "github.com/yangtinglin69/saas/internal/server/tls"
	"github.com/yangtinglin69/saas/internal/version"
	"github.com/yangtinglin69/saas/pkg/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long:  `Start the HTTP server for the admin API and every tenant site.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info := version.GetVersion()
	logger.InfoEvent().
		Str("version", info.Version).
		Str("build_date", info.BuildDate).
		Str("git_commit", info.GitCommit).
		Msg("Starting saas server")

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	app := newApplication(cfg, database)
	if err := app.ensureAdmin(ctx); err != nil {
		return err
	}

	tlsMgr, err := tlsmanager.NewManager(tlsmanager.Config{
		AutoCert:   cfg.TLS.AutoCert,
		CertDir:    cfg.TLS.CertDir,
		Email:      cfg.TLS.Email,
		CertFile:   cfg.TLS.CertFile,
		KeyFile:    cfg.TLS.KeyFile,
		AdminHosts: cfg.Server.AdminDomains,
	}, app.services.Tenants)
	if err != nil {
		return fmt.Errorf("failed to setup TLS: %w", err)
	}

	handler := app.handler()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      tlsMgr.HTTPHandler(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var httpsServer *http.Server
	if tlsMgr.IsEnabled() {
		httpsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.TLS.HTTPSPort),
			Handler:      handler,
			TLSConfig:    tlsMgr.GetTLSConfig(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		logger.InfoEvent().
			Bool("auto_cert", cfg.TLS.AutoCert).
			Msg("TLS enabled")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	serve := func(srv *http.Server, listen func() error) {
		logger.InfoEvent().
			Str("addr", srv.Addr).
			Strs("admin_domains", cfg.Server.AdminDomains).
			Msg("Server listening")

		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
		}
	}

	go serve(httpServer, httpServer.ListenAndServe)
	if httpsServer != nil {
		go serve(httpsServer, func() error { return httpsServer.ListenAndServeTLS("", "") })
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	logger.InfoEvent().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{httpServer, httpsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorEvent().Err(err).Str("addr", srv.Addr).Msg("Server shutdown error")
		}
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}

	return serveErr
}
