package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/modules/auth/login"
	"github.com/microsolutions/showcase/internal/modules/auth/pin"
	"github.com/microsolutions/showcase/internal/modules/gateway"
	"github.com/microsolutions/showcase/internal/modules/public"
	"github.com/microsolutions/showcase/internal/modules/singleton"
	"github.com/microsolutions/showcase/internal/modules/solution"
	"github.com/microsolutions/showcase/internal/modules/transfer"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"github.com/microsolutions/showcase/internal/pkg/response"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

func newRouter(cfg *config.AppConfig, logger *zap.Logger) *gin.Engine {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(newCORS(cfg))
	return r
}

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth(a.signer)

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if local, ok := a.svc.Store.(*asset.LocalStore); ok {
		r.Static(asset.LocalPrefix, local.Dir())
	}
	gateway.RegisterRoutes(r.Group(""), a.hub)

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(a.signer))
	api.Use(middleware.RateLimit(a.cache, middleware.RateLimitOptions{Max: 50, Window: time.Second}))

	public.NewHandler(a.svc.Public).RegisterRoutes(api, middleware.HTTPCache(a.cache, middleware.HTTPCacheOptions{
		TTL:     a.cfg.HTTPCacheTTL,
		Disable: a.cfg.HTTPCacheTTL == 0,
	}))

	gate := pin.NewGate(a.cfg.AdminPIN, a.cfg.PINCooldown, a.pinStore, a.signer, a.logger)
	pin.NewHandler(gate).RegisterRoutes(api)
	loginSvc := login.NewService(a.svc.Users, a.signer, a.cfg.AdminEmail, a.logger)
	login.NewHandler(loginSvc, a.signer).RegisterRoutes(api, authMW)

	admin := api.Group("", middleware.Idempotence(a.cache))
	solution.NewHandler(a.svc.Solutions).RegisterRoutes(admin, authMW)
	singleton.NewHandler(a.svc.Company).RegisterRoutes(admin, authMW)
	singleton.NewHandler(a.svc.Contacts).RegisterRoutes(admin, authMW)
	singleton.NewHandler(a.svc.Statistics).RegisterRoutes(admin, authMW)
	adminuser.NewHandler(a.svc.Users).RegisterRoutes(admin, authMW)
	asset.NewHandler(a.svc.Assets).RegisterRoutes(admin, authMW)
	transfer.NewHandler(a.svc.Transfer).RegisterRoutes(admin, authMW)

	ops := admin.Group("/admin", authMW)
	ops.GET("/cron", func(c *gin.Context) { response.OK(c, a.sched.List()) })
	ops.POST("/cron/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		response.NoContent(c)
	})
	ops.POST("/cache/purge", func(c *gin.Context) {
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), a.cache)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, gin.H{"deleted": deleted})
	})
}
