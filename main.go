package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/navarrastar/application-relay/pkg/api"
	"github.com/navarrastar/application-relay/pkg/clients/smtprelay"
	"github.com/navarrastar/application-relay/pkg/config"
	"github.com/navarrastar/application-relay/pkg/logger"
	"github.com/navarrastar/application-relay/pkg/services"
	"github.com/navarrastar/application-relay/pkg/validation"
)

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "application-relay: %v\n", err)
		os.Exit(1)
	}

	logger.SetGlobals()
	log, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "application-relay: invalid LOG_LEVEL %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	if envErr != nil {
		log.Debug().Err(envErr).Msg("No .env file loaded")
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	logStartupInfo(cfg, log)

	// Initialize the SMTP relay client
	relayClient := smtprelay.NewClient(smtprelay.Config{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.Relay.SenderEmail,
		Password:       cfg.Relay.SenderPassword,
		DialTimeout:    cfg.SMTP.DialTimeout,
		SessionTimeout: cfg.SMTP.SessionTimeout,
	})

	// Initialize services
	submissionService := services.NewSubmissionService(
		relayClient,
		validation.New(validation.Options{RequireBankNumber: cfg.RequireBankNumber}),
		cfg,
		log,
	)

	gin.SetMode(cfg.GinMode)
	router := api.NewRouter(api.NewHandlers(submissionService), cfg.CORSAllowedOrigins, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Leaves room for a full SMTP session before the response is written.
		WriteTimeout: cfg.SMTP.SessionTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func logStartupInfo(cfg *config.Config, log zerolog.Logger) {
	event := log.Info()
	if !cfg.Relay.Complete() {
		event = log.Warn().Strs("missing", cfg.Relay.Missing())
	}
	event.
		Str("smtp_host", cfg.SMTP.Host).
		Int("smtp_port", cfg.SMTP.Port).
		Bool("sender_email_set", cfg.Relay.SenderEmail != "").
		Bool("sender_password_set", cfg.Relay.SenderPassword != "").
		Bool("receiver_email_set", cfg.Relay.ReceiverEmail != "").
		Bool("require_bank_number", cfg.RequireBankNumber).
		Msg("Relay configuration loaded")
}
