package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Glupulse_MealPlan/internal/claudeservice"
	"Glupulse_MealPlan/internal/config"
	"Glupulse_MealPlan/internal/server"
	"Glupulse_MealPlan/internal/utility"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownGracePeriod = 5 * time.Second

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, apiServer *http.Server) error {
	// Block until SIGINT/SIGTERM or a failed listener cancels the group.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has a few seconds to finish the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server exiting")
	return nil
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not load configuration")
	}
	utility.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if !cfg.HasAPIKey() {
		log.Warn().Msg("CLAUDE_API_KEY is not set; meal plan requests will fail until it is configured")
	}

	client := claudeservice.NewClient(cfg.Anthropic.APIKey,
		claudeservice.WithBaseURL(cfg.Anthropic.BaseURL),
		claudeservice.WithTimeout(cfg.Anthropic.Timeout),
	)
	apiServer := server.NewServer(cfg, claudeservice.NewService(client))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", apiServer.Addr).Msg("Meal plan server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return gracefulShutdown(gCtx, stop, apiServer)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server error")
	}
	log.Info().Msg("Graceful shutdown complete.")
}
