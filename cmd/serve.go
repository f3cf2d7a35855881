package cmd

import (
	"contacts-api/internal/data/repository"
	"contacts-api/internal/wire"
	"contacts-api/pkg/cache"
	"contacts-api/pkg/database"
	"contacts-api/pkg/mailer"
	"contacts-api/pkg/metrics"
	"contacts-api/pkg/token"
	"contacts-api/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if port != "" {
				config.App.Port = port
			}

			logger.Info("Starting application",
				zap.String("app", config.App.Name),
				zap.String("port", config.App.Port),
				zap.Bool("debug", config.App.Debug),
				zap.Bool("redis", config.Redis.Enabled),
			)

			db, err := database.InitDB(config.Database)
			if err != nil {
				logger.Error("Failed to connect to database", zap.Error(err))
				return err
			}
			defer db.Close()

			logger.Info("Database connected successfully")

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			collector := metrics.NewCollector(reg)

			c := cache.New(newCacheBackend(config.Redis, logger), logger,
				cache.WithOpTimeout(config.Redis.OpTimeout),
				cache.WithRecorder(collector),
			)
			defer c.Close()

			app := wire.Wiring(wire.Deps{
				Repo:     repository.NewRepository(db, logger),
				DB:       db,
				Cache:    c,
				Tokens:   token.NewManager(config.JWT.Secret, config.App.Name),
				Mailer:   mailer.New(config.Email, logger),
				Metrics:  collector,
				Gatherer: reg,
				Config:   config,
				Logger:   logger,
			})
			defer app.Close()

			return APIServer(app.Router, config.App.Port, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")

	return cmd
}

// newCacheBackend picks Redis when enabled. A Redis that is down at startup is
// not fatal: the cache fails open and the API keeps serving from the database.
func newCacheBackend(config utils.RedisConfig, logger *zap.Logger) cache.Backend {
	if !config.Enabled {
		logger.Info("Redis disabled, using in-memory cache")
		return cache.NewInMemoryBackend()
	}

	logger.Info("Using Redis cache", zap.String("addr", config.Addr), zap.Int("db", config.DB))
	return cache.NewRedisBackend(cache.RedisConfig{
		Addr:      config.Addr,
		Password:  config.Password,
		DB:        config.DB,
		KeyPrefix: config.KeyPrefix,
		Timeout:   config.OpTimeout,
	})
}
