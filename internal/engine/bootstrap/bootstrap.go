package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/conf"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/internal/engine/router"
	"github.com/tenantry/tenantry/internal/engine/service"
	"github.com/tenantry/tenantry/pkg/cache"
	"github.com/tenantry/tenantry/pkg/ctx"
	"github.com/tenantry/tenantry/pkg/database"
	"github.com/tenantry/tenantry/pkg/log"
	"github.com/tenantry/tenantry/pkg/metrics"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/4 19:51
 * @file: bootstrap.go
 * @description: app assembly and lifecycle
 */

type App struct {
	HttpApp *fiber.App
	Metrics *metrics.Server
	AppConf conf.AppConfig
}

// NewApp 按 配置 -> 日志 -> 存储 -> 仓储 -> 服务 -> 路由 的顺序装配
func NewApp(configFile string) (*App, error) {
	// 配置加载前先用默认日志，加载后再按配置重建
	log.MustInit(log.SetDefaults())

	appConf := conf.NewConf(configFile)
	log.MustInit(&appConf.Log)

	db, err := database.NewDatabase(appConf.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	redis, err := cache.NewRedis(appConf.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	appCtx := ctx.NewContext(context.Background(), db, redis, log.GetLogger())

	gormDB := database.NewGormDB(db)
	orgRepo := repo.NewOrganizationRepo(gormDB)
	memberRepo := repo.NewOrganizationMemberRepo(gormDB)
	subRepo := repo.NewSubscriptionRepo(gormDB)
	planRepo := repo.NewSubscriptionPlanRepo(gormDB)
	usageRepo := repo.NewUsageTrackingRepo(gormDB)
	keyRepo := repo.NewApiKeyRepo(gormDB)
	flagRepo := repo.NewFeatureFlagRepo(gormDB)

	orgService := service.NewOrganizationService(orgRepo, memberRepo)
	subService := service.NewSubscriptionService(subRepo, planRepo, orgRepo)
	usageService := service.NewUsageTrackingService(usageRepo)
	keyService := service.NewApiKeyService(keyRepo, orgRepo)
	flagService := service.NewFeatureFlagService(flagRepo)

	metricsServer := metrics.NewServer(appConf.Metrics)
	if err := metrics.RegisterGovernanceCollectors(metricsServer); err != nil {
		return nil, fmt.Errorf("register collectors: %w", err)
	}

	rt := router.NewRouter(
		&appConf.Http,
		appConf.RateLimit,
		appCtx,
		metricsServer.GetRegistry(),
		orgService,
		subService,
		usageService,
		keyService,
		flagService,
	)

	return &App{
		HttpApp: rt.Router(),
		Metrics: metricsServer,
		AppConf: appConf,
	}, nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App) {
	if err := app.Metrics.Start(); err != nil {
		log.Errorw("metrics server start failed", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		addr := fmt.Sprintf("%s:%d", app.AppConf.Http.Host, app.AppConf.Http.Port)
		log.Infow("HTTP listener started",
			"address", addr,
		)
		if err := app.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed",
				"address", addr,
				"error", err,
			)
		}
	}()

	sig := <-quit
	log.Infof("Received signal: %v, shutting down gracefully...", sig)

	shutdownTimeout := time.Duration(app.AppConf.Http.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	} else {
		log.Info("HTTP server shut down gracefully")
	}

	if err := app.Metrics.Stop(shutdownCtx); err != nil {
		log.Errorf("metrics server shutdown error: %v", err)
	}

	log.Info("Server shutdown complete")
}
