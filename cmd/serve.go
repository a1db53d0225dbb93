package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/I-No-oNe/TuneX/internal/keys"
	"github.com/I-No-oNe/TuneX/internal/resolver"
	"github.com/I-No-oNe/TuneX/internal/server"
	"github.com/I-No-oNe/TuneX/internal/store"
	"github.com/I-No-oNe/TuneX/internal/stream"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the streaming gateway HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Serve,
	}
}

// Serve wires the full stack and runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	keyRepo := keys.NewRepository(db)
	adminKey, err := keyRepo.Bootstrap()
	if err != nil {
		return err
	}
	if adminKey != "" {
		r.logger.Warn("no API keys found, generated admin key", "key", adminKey)
	}

	users := store.New(db)
	extractor := resolver.NewExtractor(r.config.Upstream, r.logger)

	service := stream.NewService(stream.Options{
		Resolver:      extractor,
		Store:         users,
		Spawner:       stream.NewPoolSpawner(r.config.Upstream.PrefetchSlots),
		Logger:        r.logger,
		AudioTTL:      r.config.Cache.AudioTTL(),
		RelatedTTL:    r.config.Cache.RelatedTTL(),
		SearchTTL:     r.config.Cache.SearchTTL(),
		PrefetchLimit: r.config.Upstream.PrefetchLimit,
		TrendingQuery: r.config.Upstream.TrendingQuery,
	})

	router := server.NewBasicRouter()
	router.Use(
		server.LoggingMiddleware(r.logger),
		server.CORSMiddleware(),
		server.AuthMiddleware(keyRepo),
	)
	server.NewAPI(service, users, r.logger).Register(router)

	srv := server.New(r.config.Server, router, r.logger)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(runCtx)
}
