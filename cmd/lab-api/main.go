package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/sino-med/hms-lab-api/api/swagger"
	"github.com/sino-med/hms-lab-api/internal/handler"
	"github.com/sino-med/hms-lab-api/internal/middleware"
	"github.com/sino-med/hms-lab-api/internal/models"
	"github.com/sino-med/hms-lab-api/internal/repository"
	"github.com/sino-med/hms-lab-api/internal/service"
	"github.com/sino-med/hms-lab-api/pkg/cache"
	"github.com/sino-med/hms-lab-api/pkg/config"
	"github.com/sino-med/hms-lab-api/pkg/database"
	"github.com/sino-med/hms-lab-api/pkg/logger"
	corsmiddleware "github.com/sino-med/hms-lab-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sino-med/hms-lab-api/pkg/middleware/requestid"
)

// @title HMS Lab API
// @version 1.0.0
// @description Laboratory order and result processing engine
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The ledger works without Redis; reads just skip the cache.
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	orderRepo := repository.NewOrderRepository(db)
	reagentRepo := repository.NewReagentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	verifier := service.NewTokenVerifier(cfg.JWT)
	orderSvc := service.NewOrderService(orderRepo, logr)
	resultSvc := service.NewResultService(orderRepo, reagentRepo, resultRepo, submissionRepo, cacheRepo, nil, logr, cfg.Lab.SubmitRetries)
	reagentSvc := service.NewReagentService(reagentRepo, cacheRepo, metricsSvc, cfg.Reagents, logr)
	historySvc := service.NewHistoryService(resultRepo, logr)

	orderHandler := handler.NewOrderHandler(orderSvc)
	resultHandler := handler.NewResultHandler(resultSvc, metricsSvc)
	reagentHandler := handler.NewReagentHandler(reagentSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	labStaff := middleware.RequireRoles(models.RoleLaborant, models.RoleLabSupervisor, models.RoleAdmin)
	approvers := middleware.RequireRoles(models.RoleLabSupervisor, models.RoleDoctor, models.RoleAdmin)

	lab := r.Group(cfg.APIPrefix + "/lab")
	lab.Use(middleware.JWT(verifier))
	{
		lab.GET("/orders", orderHandler.List)
		lab.GET("/orders/:id", orderHandler.Get)
		lab.GET("/orders/:id/result", resultHandler.Get)
		lab.GET("/orders/:id/classify", resultHandler.Classify)

		lab.POST("/orders/:id/collect-sample", labStaff,
			middleware.Audit(auditRepo, "collect_sample", "lab_order"), orderHandler.CollectSample)
		lab.POST("/orders/:id/start", labStaff,
			middleware.Audit(auditRepo, "start_processing", "lab_order"), orderHandler.Start)
		lab.POST("/orders/:id/results", labStaff,
			middleware.Audit(auditRepo, "submit_result", "lab_order"), resultHandler.Submit)
		lab.POST("/orders/:id/approve", approvers,
			middleware.Audit(auditRepo, "approve_result", "lab_order"), orderHandler.Approve)
		lab.POST("/orders/:id/cancel", labStaff,
			middleware.Audit(auditRepo, "cancel_order", "lab_order"), orderHandler.Cancel)

		lab.GET("/reagents", reagentHandler.List)
		lab.GET("/reagents/export", reagentHandler.Export)
		lab.GET("/reagents/:id", reagentHandler.Get)
		lab.GET("/reagents/:id/usage", reagentHandler.Usage)

		lab.GET("/patients/:id/history", historyHandler.History)
		lab.GET("/patients/:id/history/report", historyHandler.Report)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
