package router

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tenantry/tenantry/internal/engine/service"
	"github.com/tenantry/tenantry/pkg/cache"
	"github.com/tenantry/tenantry/pkg/ctx"
	httpx "github.com/tenantry/tenantry/pkg/http"
	"github.com/tenantry/tenantry/pkg/http/middleware"
	"github.com/tenantry/tenantry/pkg/ratelimit"
	"github.com/tenantry/tenantry/pkg/version"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/8 15:48
 * @file: router.go
 * @description: setup router
 *  		     internal api router, use by web
 */

type Router struct {
	Http      *httpx.Http
	RateLimit ratelimit.Conf
	Ctx       *ctx.Context

	registry *prometheus.Registry

	orgService   *service.OrganizationService
	subService   *service.SubscriptionService
	usageService *service.UsageTrackingService
	keyService   *service.ApiKeyService
	flagService  *service.FeatureFlagService
}

func NewRouter(
	httpConf *httpx.Http,
	rateLimitConf ratelimit.Conf,
	c *ctx.Context,
	registry *prometheus.Registry,
	orgService *service.OrganizationService,
	subService *service.SubscriptionService,
	usageService *service.UsageTrackingService,
	keyService *service.ApiKeyService,
	flagService *service.FeatureFlagService,
) *Router {
	return &Router{
		Http:         httpConf,
		RateLimit:    rateLimitConf,
		Ctx:          c,
		registry:     registry,
		orgService:   orgService,
		subService:   subService,
		usageService: usageService,
		keyService:   keyService,
		flagService:  flagService,
	}
}

func (rt *Router) Router() *fiber.App {
	// 设置默认的 BodyLimit（100MB）
	bodyLimit := rt.Http.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 100 * 1024 * 1024 // 100MB 默认值
	}

	app := fiber.New(fiber.Config{
		AppName:      "Tenantry",
		ReadTimeout:  time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:    bodyLimit,
	})

	if rt.Http.AccessLog {
		app.Use(httpx.AccessLogFormat(rt.Ctx.Log.Desugar()))
	}

	// 中间件
	app.Use(
		fiberrecover.New(),
		cors.New(),
		middleware.RequestMiddleware(),
		middleware.UnifiedResponseMiddleware(),
	)

	if rt.Http.PProf {
		app.Use(pprof.New(pprof.Config{Prefix: "/debug"}))
	}

	if rt.Http.ExposeMetrics && rt.registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// 版本信息
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	auth := middleware.AuthorizationMiddleware(rt.Http.Auth.SecretKey, rt.Ctx.GetRedis())
	// 限流必须在认证之后，组织 id 由认证写入 locals
	rateLimit := middleware.RateLimitMiddleware(rt.RateLimit, rt.counterStore(), rt.subService, rt.usageService)

	// 内部 api，web 端使用
	engine := app.Group(rt.Http.InternalContextPath)
	{
		rt.organizationRouter(engine, auth, rateLimit)
		rt.subscriptionRouter(engine, auth, rateLimit)
		rt.usageRouter(engine, auth, rateLimit)
		rt.apiKeyRouter(engine, auth, rateLimit)
		rt.featureFlagRouter(engine, auth, rateLimit)
	}

	// 外部 api，api key 认证
	external := app.Group(rt.Http.ExternalContextPath)
	external.Use(middleware.ApiKeyMiddleware(rt.keyService, ""), rateLimit)
	{
		rt.externalRouter(external)
	}

	// 找不到路径时的处理 - 必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		c.Status(fiber.StatusNotFound)
		return httpx.WithRepErr(c, fiber.StatusNotFound, "request path not found", c.Path())
	})

	return app
}

// counterStore 根据配置选择计数存储，redis 缺失时退回内存
func (rt *Router) counterStore() ratelimit.CounterStore {
	if rt.RateLimit.Store == "redis" && rt.Ctx.GetRedis() != nil {
		return ratelimit.NewRedisCounterStore(cache.NewRedisCache(rt.Ctx.GetRedis()), rt.RateLimit.Window())
	}
	return ratelimit.NewMemoryCounterStore(rt.RateLimit.Window())
}

// respondErr 业务错误到响应码的映射
func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return httpx.WithRepErrMsg(c, httpx.NotFound.Code, err.Error(), c.Path())
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrDuplicateSubscription):
		return httpx.WithRepErrMsg(c, httpx.Conflict.Code, err.Error(), c.Path())
	case errors.Is(err, service.ErrLastOwner),
		errors.Is(err, service.ErrNotCancellable),
		errors.Is(err, service.ErrInvariantViolation):
		return httpx.WithRepErrMsg(c, httpx.InvariantViolation.Code, err.Error(), c.Path())
	case errors.Is(err, service.ErrQuotaExceeded):
		return httpx.WithRepErrMsg(c, httpx.QuotaExceeded.Code, err.Error(), c.Path())
	case errors.Is(err, service.ErrInvalidCredential):
		return httpx.WithRepErrMsg(c, httpx.InvalidApiKey.Code, httpx.InvalidApiKey.Msg, c.Path())
	case errors.Is(err, service.ErrRateLimited):
		return httpx.WithRepErrMsg(c, httpx.RateLimited.Code, httpx.RateLimited.Msg, c.Path())
	case errors.Is(err, service.ErrInvalidArgument):
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, err.Error(), c.Path())
	default:
		return httpx.WithRepErrMsg(c, httpx.Failed.Code, err.Error(), c.Path())
	}
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil || value <= 0 {
		return def
	}
	return value
}
