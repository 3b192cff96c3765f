package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"care-companion-go/internal/cache"
	"care-companion-go/internal/config"
	"care-companion-go/internal/db"
	recordsdomain "care-companion-go/internal/domain/records"
	scheduledomain "care-companion-go/internal/domain/schedule"
	"care-companion-go/internal/notify"
	recordsrepo "care-companion-go/internal/repository/postgres/records"
	"care-companion-go/internal/repository/schedulefile"
	"care-companion-go/internal/transport/httpserver"
	"care-companion-go/internal/transport/httpserver/handler"
	"care-companion-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redisStore *cache.RedisStore
	notifier   *notify.Notifier

	stopNotifier context.CancelFunc
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{cfg: cfg, log: log, db: dbConn}

	log.Info("app: initializing cache", "backend", cfg.Cache.Backend)
	store, err := a.newCacheStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	cacheManager := cache.New(store, cache.Options{TTL: cfg.Cache.TTL, Capacity: cfg.Cache.Capacity}, log)

	records := recordsdomain.NewService(recordsrepo.NewPostgres(dbConn), cacheManager, log)

	log.Info("app: initializing schedule store",
		"schedules_file", cfg.Schedule.SchedulesFile,
		"elderly_schedules_file", cfg.Schedule.ElderlySchedulesFile,
	)
	scheduleRepo := schedulefile.New(cfg.Schedule.SchedulesFile, cfg.Schedule.ElderlySchedulesFile, log)
	if err := scheduleRepo.RebuildIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("rebuild schedule index: %w", err)
	}
	schedules := scheduledomain.NewService(scheduleRepo)

	log.Info("app: initializing router")
	handlers := handler.New(records, schedules, cacheManager, log)
	router := httpserver.NewRouter(handlers)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	if cfg.Notify.Enabled {
		a.notifier = notify.New(schedules, cfg.Notify.Interval, log)
		notifierCtx, stop := context.WithCancel(context.Background())
		a.stopNotifier = stop
		go a.notifier.Start(notifierCtx)
	}

	return a, nil
}

func (a *App) newCacheStore(cfg config.CacheConfig) (cache.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "redis":
		redisStore, err := cache.NewRedisStore(cfg.Redis, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache store: %w", err)
		}
		a.redisStore = redisStore
		return redisStore, nil
	case "", "file":
		fileStore, err := cache.NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("file cache store: %w", err)
		}
		return fileStore, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.stopNotifier != nil {
		a.stopNotifier()
	}

	var firstErr error
	if a.redisStore != nil {
		if err := a.redisStore.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
