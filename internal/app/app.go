package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/database"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/microsolutions/showcase/internal/modules/auth/pin"
	"github.com/microsolutions/showcase/internal/modules/gateway"
	pkgcron "github.com/microsolutions/showcase/internal/pkg/cron"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/microsolutions/showcase/internal/pkg/nativelog"
	pkgredis "github.com/microsolutions/showcase/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	hub      *gateway.Hub
	signer   *jwt.Signer
	cache    middleware.Store
	pinStore pin.Store
	svc      *Services
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → object store → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	_ = os.Setenv(nativelog.EnvLogDir, cfg.LogDir())

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	a := &App{cfg: cfg, db: db, logger: logger, signer: jwt.NewSigner(cfg.JWTSecret)}
	if a.signer.UsesDefaultSecret() {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	if cfg.RedisURL != "" {
		rc, err := pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.rc = rc
		a.cache = middleware.NewRedisStore(rc.Raw())
		a.pinStore = pin.NewRedisStore(rc)
	} else {
		logger.Info("redis_url is empty, keeping cache and lockout state in process")
		a.cache = middleware.NewMemoryStore()
		a.pinStore = pin.NewMemoryStore()
	}

	a.hub = gateway.NewHub(a.rc, logger, func(token string) bool {
		_, err := a.signer.ParseScope(token, jwt.ScopeAdmin)
		return err == nil
	})
	notifier := gateway.NewNotifier(a.hub, a.cache, logger)
	a.hub.OnRemote(func(ctx context.Context, _ gateway.Message) { notifier.Purge(ctx) })

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.svc, err = NewServices(ctx, cfg, db, notifier, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	go a.hub.Run(ctx)

	a.sched = pkgcron.New(logger)
	registerCronJobs(a.sched, a.svc, logger)
	a.sched.Start(ctx)

	a.router = newRouter(cfg, logger)
	a.registerRoutes()
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	if a.rc != nil {
		_ = a.rc.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
