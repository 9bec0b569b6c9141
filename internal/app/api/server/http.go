package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/docs"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/api/handlers"
	mw "github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/api/middleware"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/ingest"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/statistics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/sweep"
	cfgpkg "github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"
	metrics "github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func newCORS() gin.HandlerFunc {
	c := cors.DefaultConfig()
	c.AllowAllOrigins = true
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Request-ID", "X-Tenant-ID")
	return cors.New(c)
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, db *gorm.DB, cfg *cfgpkg.Config,
	mgr billing.Manager, sweeper sweep.Sweeper, ing *ingest.Service, stats *statistics.Service) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Billing job + query APIs, JWT-protected when auth.jwt_secret is set
	apiBilling := r.Group("/api/v1/billing")
	apiBilling.Use(newCORS(), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg.Auth.JWTSecret))
	handlers.RegisterBillingRoutes(apiBilling, mgr, sweeper, log)

	// Provider webhooks; no JWT, providers sign payloads out of band
	apiWebhooks := r.Group("/api/v1/webhooks")
	apiWebhooks.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterPaymentWebhookRoutes(apiWebhooks, ing, log)

	// Admin APIs
	apiAdmin := r.Group("/api/v1/admin")
	apiAdmin.Use(newCORS(), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg.Auth.JWTSecret))
	handlers.RegisterAdminRoutes(apiAdmin, db, stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
