package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"dormbot/internal/api"
	"dormbot/internal/config"
	"dormbot/internal/log"
	"dormbot/internal/metrics"
	"dormbot/internal/redis"
	"dormbot/internal/service/chat"
	"dormbot/internal/service/directory"
	"dormbot/internal/service/nlu"
	"dormbot/internal/service/router"
	"dormbot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	ConfigPath string
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:          "dormbot",
		Short:        "dormitory chat bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (defaults to DORMBOT_CONFIG or config.json)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "run the chat HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "create database tables and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(opts)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		l := log.L()
		l.Error().Err(err).Msg("dormbot exited")
		os.Exit(1)
	}
}

func setup(opts *options) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	dbType := cfg.BasicConfig.Database
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(db, dbType); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, db, nil
}

func migrate(opts *options) error {
	cfg, db, err := setup(opts)
	if err != nil {
		return err
	}
	defer db.Close()
	l := log.L()
	l.Info().Str("database", cfg.BasicConfig.Database).Msg("migrations applied")
	return nil
}

func serve(ctx context.Context, opts *options) error {
	cfg, db, err := setup(opts)
	if err != nil {
		return err
	}
	defer db.Close()
	l := log.L()

	var chatOpts []chat.Option
	if cfg.Redis.Enabled {
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			return fmt.Errorf("create redis client: %w", err)
		}
		defer rdb.Close()
		chatOpts = append(chatOpts, chat.WithPromptCache(rdb, cfg.Redis.PromptTTL))
	}

	m := metrics.New("dormbot")
	extractor, err := nlu.NewExtractor(ctx, cfg.NLU)
	if err != nil {
		return fmt.Errorf("init nlu extractor: %w", err)
	}
	adminRouter := router.New(nlu.Observe(extractor, m), directory.NewStore(db, cfg.BasicConfig.Database), m)
	handlers := api.NewHandler(chat.NewService(db, chatOpts...), adminRouter, m, cfg.Chat)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(log.GinMiddleware(log.L()), gin.Recovery())
	handlers.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", srv.Addr).Str("nlu_provider", cfg.NLU.Provider).Bool("redis", cfg.Redis.Enabled).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
