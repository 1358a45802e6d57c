package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavshah/roster-api-go/internal/config"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/roster"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds the wired dependencies shared by the server and serverless entry points
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Events *roster.EventRegistry
	Router *gin.Engine

	redis *redis.Client
}

// New opens storage, selects the apply lock backend and builds the router
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	a := &App{Config: cfg, DB: db, Events: roster.NewEventRegistry()}

	var locks roster.RangeLock
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.redis.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locks = roster.NewRedisRangeLock(a.redis, cfg.ApplyLockTTL)
		logger.New().WithField("addr", cfg.RedisAddr).Info("using redis apply lock")
	} else {
		locks = roster.NewMemoryRangeLock()
	}

	a.Events.Subscribe(roster.TopicScheduleApplied, func(ctx context.Context, e roster.Event) {
		applied, ok := e.Payload.(roster.AppliedEvent)
		if !ok {
			return
		}
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"batch_id":   applied.BatchID.String(),
			"department": applied.Department,
			"records":    applied.Records,
		}).Debug("schedule applied event")
	})

	defaults := scheduler.Options{
		MaxWorkPerStaff:  cfg.MaxWorkPerStaff,
		WeekendOffRatio:  cfg.WeekendOffRatio,
		MinWorkingPerDay: cfg.MinWorkingPerDay,
	}
	codes := roster.NewShiftCodeCache(db, cfg.ShiftCodeCacheTTL)
	service := roster.NewService(db, codes, locks, a.Events, defaults, cfg.Location())
	authn := auth.NewAuthenticator(cfg.JWTSecret, cfg.APIMasterSecret)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Router = handlers.SetupRouter(handlers.NewHandler(db, authn, service))
	return a, nil
}

// Close releases the database and redis connections
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
