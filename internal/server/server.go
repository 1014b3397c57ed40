// Package server holds the application container.
//
// Server owns every long-lived resource: configuration, loggers, the optional
// PostgreSQL pool and Redis client, the background job service, the store and
// the HTTP server. New opens them and Shutdown closes them in reverse order.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/database"
	"github.com/deppfellow/hbnb-api/internal/lib/job"
	"github.com/deppfellow/hbnb-api/internal/storage"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/hbnb-api/internal/logger"
)

// Server is the application container, not the HTTP server itself.
// DB, Redis and Job are nil when the configuration does not need them.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client
	Job           *job.JobService
	Store         storage.Store

	httpServer *http.Server
}

// New opens the resources cfg asks for and the store on top of them.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
	}

	if cfg.Storage.Engine == config.EngineDB {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.DB = db
	}

	if cfg.Redis != nil {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Redis only backs jobs unless it is the storage engine.
			if cfg.Storage.Engine == config.EngineRedis {
				s.closeResources()
				_ = redisClient.Close()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
		}
		s.Redis = redisClient
	}

	store, err := storage.Open(cfg.Storage, storage.Deps{
		DB:     s.DB,
		Redis:  s.Redis,
		Logger: logger,
	})
	if err != nil {
		s.closeResources()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	s.Store = store

	if cfg.JobsEnabled() {
		jobService := job.NewJobService(logger, cfg)
		jobService.InitHandlers(cfg, logger)

		if err := jobService.Start(); err != nil {
			s.closeResources()
			return nil, fmt.Errorf("failed to start job service: %w", err)
		}
		s.Job = jobService
	}

	logger.Info().
		Str("engine", cfg.Storage.Engine).
		Bool("jobs", s.Job != nil).
		Msg("server initialized")

	return s, nil
}

// SetupHTTPServer configures the net/http server around handler. Timeouts are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done, flushes the store and closes every resource.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Store != nil {
		if err := s.Store.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush storage: %w", err))
		}
	}

	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *Server) closeResources() error {
	var errs []error

	if s.Job != nil {
		s.Job.Stop()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
