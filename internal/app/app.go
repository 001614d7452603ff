package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mx-space/pagebuilder/internal/config"
	"github.com/mx-space/pagebuilder/internal/middleware"
	"github.com/mx-space/pagebuilder/internal/modules/content/section"
	"github.com/mx-space/pagebuilder/internal/modules/content/version"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	pkgcron "github.com/mx-space/pagebuilder/internal/pkg/cron"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rdb      *redis.Client
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
	sections *section.Service
	versions *version.Service
}

// New wires services and routes around an open database. rdb may be nil, in
// which case caching, idempotence and rate limiting are off.
func New(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(apperr.JSONTagName)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("HTTP")))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins, cfg.IsDev())))

	sections := section.NewService(db, section.WithLogger(logger))
	versions := version.NewService(db, sections, version.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(logger)
	registerCronJobs(sched, sections, rdb, cfg, logger)
	sched.Start(ctx)

	a := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		rdb:      rdb,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
		sections: sections,
		versions: versions,
	}
	a.registerRoutes()
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and waits for running ones.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Wait()
}
