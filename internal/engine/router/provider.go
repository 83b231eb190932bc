package router

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tenantry/tenantry/internal/engine/service"
	"github.com/tenantry/tenantry/pkg/ctx"
	"github.com/tenantry/tenantry/pkg/http"
	"github.com/tenantry/tenantry/pkg/ratelimit"
)

// ProviderSet 提供路由相关的依赖
var ProviderSet = wire.NewSet(ProvideRouter)

// ProvideRouter 提供路由实例
func ProvideRouter(
	httpConf *http.Http,
	rateLimitConf ratelimit.Conf,
	c *ctx.Context,
	registry *prometheus.Registry,
	orgService *service.OrganizationService,
	subService *service.SubscriptionService,
	usageService *service.UsageTrackingService,
	keyService *service.ApiKeyService,
	flagService *service.FeatureFlagService,
) *Router {
	return NewRouter(httpConf, rateLimitConf, c, registry, orgService, subService, usageService, keyService, flagService)
}
