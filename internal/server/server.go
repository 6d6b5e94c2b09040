// Package server exposes the closing engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oakline/closedesk/internal/audit"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/oakline/closedesk/internal/clock"
	"github.com/oakline/closedesk/internal/config"
	"github.com/oakline/closedesk/internal/feeschedule"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/oakline/closedesk/internal/logger"
	"github.com/oakline/closedesk/internal/migration"
	"github.com/oakline/closedesk/internal/notification"
	"github.com/oakline/closedesk/internal/observability/metrics"
	"github.com/oakline/closedesk/internal/project"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	"github.com/oakline/closedesk/internal/project/rollup"
	"github.com/oakline/closedesk/internal/seed"
	"github.com/oakline/closedesk/internal/shortfall"
	shortfalldomain "github.com/oakline/closedesk/internal/shortfall/domain"
	"github.com/oakline/closedesk/internal/soa"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	"github.com/oakline/closedesk/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	logger.Module,
	clock.Module,
	db.Module,
	migration.Module,
	metrics.Module,
	notification.Module,
	audit.Module,
	feeschedule.Module,
	project.Module,
	soa.Module,
	shortfall.Module,
	seed.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type Server struct {
	log *zap.Logger

	statementSvc soadomain.Service
	shortfallSvc shortfalldomain.Service
	projectSvc   projectdomain.Service
	rollupSvc    *rollup.Service
	feeSvc       feedomain.Service
	auditSvc     auditdomain.Service
}

type ServerParam struct {
	fx.In

	Engine *gin.Engine
	Log    *zap.Logger

	StatementSvc soadomain.Service
	ShortfallSvc shortfalldomain.Service
	ProjectSvc   projectdomain.Service
	RollupSvc    *rollup.Service
	FeeSvc       feedomain.Service
	AuditSvc     auditdomain.Service
}

func NewEngine(log *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(AccessLogMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func NewServer(p ServerParam) *Server {
	s := &Server{
		log: p.Log.Named("server"),

		statementSvc: p.StatementSvc,
		shortfallSvc: p.ShortfallSvc,
		projectSvc:   p.ProjectSvc,
		rollupSvc:    p.RollupSvc,
		feeSvc:       p.FeeSvc,
		auditSvc:     p.AuditSvc,
	}
	s.registerRoutes(p.Engine)
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	units := v1.Group("/units/:id")
	units.GET("/statement", s.GetStatement)
	units.POST("/statement/calculate", s.CalculateStatement)
	units.POST("/statement/recalculate", s.RecalculateStatement)
	units.POST("/statement/confirm", s.ConfirmStatement)
	units.POST("/statement/lock", s.LockStatement)
	units.POST("/statement/unlock", s.UnlockStatement)
	units.POST("/statement/upload", s.UploadStatement)
	units.GET("/statement/versions", s.ListStatementVersions)
	units.POST("/shortfall/analyze", s.AnalyzeShortfall)
	units.GET("/shortfall", s.GetShortfall)

	projects := v1.Group("/projects")
	projects.POST("", s.CreateProject)
	projects.GET("", s.ListProjects)
	projects.GET("/:id", s.GetProject)
	projects.PUT("/:id/financials", s.SetProjectFinancials)
	projects.GET("/:id/financials", s.GetProjectFinancials)
	projects.POST("/:id/summary/recompute", s.RecomputeProjectSummary)
	projects.GET("/:id/summary", s.GetProjectSummary)

	fees := v1.Group("/fee-schedule")
	fees.POST("", s.CreateFeeSchedule)
	fees.GET("", s.ListFeeSchedules)
	fees.PATCH("/:id", s.UpdateFeeSchedule)
	fees.POST("/:id/disable", s.DisableFeeSchedule)

	v1.GET("/audit-logs", s.ListAuditLogs)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
