package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Maestro/internal/adapters/http"
	"github.com/dkeye/Maestro/internal/adapters/ws"
	"github.com/dkeye/Maestro/internal/app"
	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/config"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
	"github.com/dkeye/Maestro/internal/engine"
	"github.com/dkeye/Maestro/internal/engine/resolve"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var resolver core.TrackResolver
	if cfg.Youtube.APIKey != "" {
		yt, err := resolve.NewYouTube(cfg.Youtube.APIKey, cfg.Youtube.SearchLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build track resolver")
		}
		resolver = yt
	} else {
		log.Warn().Msg("no youtube api key configured, play/radio will be unavailable")
		resolver = resolve.Unavailable{}
	}

	loop := bridge.New(cfg.BridgeQueue, cfg.BridgeTimeout)
	eng := engine.New(loop, engine.Options{
		CleanupInterval: cfg.CleanupInterval,
		IdleTTL:         cfg.SessionIdleTTL,
	})
	for _, seed := range cfg.Guilds {
		id, err := domain.ParseGuildID(seed.ID)
		if err != nil {
			log.Error().Str("guild", seed.ID).Msg("bad guild seed, skipping")
			continue
		}
		eng.RegisterGuild(domain.Guild{ID: id, Name: seed.Name, MemberCount: seed.MemberCount})
	}
	go eng.Run(ctx)

	hub := ws.NewHub(cfg.ReadLimit, cfg.PingPeriod)
	dispatcher := app.NewDispatcher(resolver, hub)
	dispatcher.Attach(eng, loop)
	hub.SetStatus(func() (any, error) {
		snap, err := dispatcher.Status()
		if err != nil {
			return nil, err
		}
		return snap, nil
	})

	broadcaster := app.NewBroadcaster(cfg.BroadcastInterval, dispatcher.ReducedStatus, hub)
	go broadcaster.Run(ctx)

	r := router.SetupRouter(cfg, dispatcher, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Maestro dashboard server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
