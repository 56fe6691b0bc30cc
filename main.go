package main

import (
	"context"
	"net/http"

	"ironview/backend/ivd/internal/config"
	"ironview/backend/ivd/internal/events"
	"ironview/backend/ivd/internal/machines"
	"ironview/backend/ivd/internal/server"
)

func main() {
	cfg := config.FromEnv()
	logger := server.Logger(cfg)

	ev, err := events.Open(*logger, cfg.EventsDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open event log")
	}
	defer ev.Close()

	mgr := machines.NewManager(*logger, server.MetricsSink(ev))

	if cfg.StateFile != "" {
		store := machines.NewStore(*logger, cfg.StateFile)
		saved, err := store.Load()
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.StateFile).Msg("load machine inventory")
		}
		mgr.Restore(saved)
		defer store.Follow(mgr)()
	}

	r := server.NewRouter(cfg, mgr, ev)

	if cfg.RescanSpec != "" {
		rs := server.NewRescanner(*logger, mgr)
		if err := rs.Start(context.Background(), cfg.RescanSpec); err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.RescanSpec).Msg("start rescan schedule")
		}
		defer rs.Stop()
	}

	logger.Info().Msgf("ivd listening on http://%s", cfg.Bind)
	if err := http.ListenAndServe(cfg.Bind, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
