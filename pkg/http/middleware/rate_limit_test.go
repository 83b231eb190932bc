package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/pkg/log"
	"github.com/tenantry/tenantry/pkg/ratelimit"
)

func TestMain(m *testing.M) {
	log.MustInit(log.SetDefaults())
	m.Run()
}

type stubPlanResolver struct {
	limit int
}

func (s *stubPlanResolver) MaxApiCallsPerHour(_ context.Context, _ string) int {
	return s.limit
}

type stubUsageRecorder struct {
	calls []string
}

func (s *stubUsageRecorder) IncrementUsage(_ context.Context, orgId, metric string) error {
	s.calls = append(s.calls, orgId+"/"+metric)
	return nil
}

func newRateLimitApp(limit int, orgId string) (*fiber.App, *stubUsageRecorder) {
	conf := ratelimit.Conf{Store: "memory", WindowMinutes: 60, DefaultLimit: 1000}
	store := ratelimit.NewMemoryCounterStore(conf.Window())
	usage := &stubUsageRecorder{}

	app := fiber.New()
	if orgId != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(constant.OrgId, orgId)
			return c.Next()
		})
	}
	app.Use(RateLimitMiddleware(conf, store, &stubPlanResolver{limit: limit}, usage))
	app.Get("/api/v1/ads", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, usage
}

func TestRateLimitMiddleware_CeilingEnforced(t *testing.T) {
	app, usage := newRateLimitApp(3, "org-1")

	// 前 3 个请求放行并带限流头
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	}

	// 第 N+1 个请求 429
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, string(body))

	// 被拒绝的请求同样计入用量
	assert.Len(t, usage.calls, 4)
	assert.Equal(t, "org-1/API_CALLS", usage.calls[3])
}

func TestRateLimitMiddleware_RemainingHeader(t *testing.T) {
	app, _ := newRateLimitApp(5, "org-1")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, "4", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_NoOrgBypass(t *testing.T) {
	app, usage := newRateLimitApp(1, "")

	// 未绑定组织的请求不限流也不计量
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
	assert.Empty(t, usage.calls)
}

func TestRateLimitMiddleware_PublicPathBypass(t *testing.T) {
	app, usage := newRateLimitApp(1, "org-1")

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	assert.Empty(t, usage.calls)
}

func TestRateLimitMiddleware_DefaultLimitFailOpen(t *testing.T) {
	// 订阅链缺失（limit=0）时退回默认值放行
	conf := ratelimit.Conf{Store: "memory", WindowMinutes: 60, DefaultLimit: 1000}
	store := ratelimit.NewMemoryCounterStore(time.Hour)
	usage := &stubUsageRecorder{}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(constant.OrgId, "org-1")
		return c.Next()
	})
	app.Use(RateLimitMiddleware(conf, store, &stubPlanResolver{limit: 0}, usage))
	app.Get("/api/v1/ads", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "1000", resp.Header.Get("X-RateLimit-Limit"))
}

func TestRateLimitMiddleware_PerOrgIsolation(t *testing.T) {
	conf := ratelimit.Conf{Store: "memory", WindowMinutes: 60, DefaultLimit: 1000}
	store := ratelimit.NewMemoryCounterStore(conf.Window())
	usage := &stubUsageRecorder{}

	newApp := func(orgId string) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(constant.OrgId, orgId)
			return c.Next()
		})
		app.Use(RateLimitMiddleware(conf, store, &stubPlanResolver{limit: 1}, usage))
		app.Get("/api/v1/ads", func(c *fiber.Ctx) error { return c.SendString("ok") })
		return app
	}

	appA := newApp("org-a")
	appB := newApp("org-b")

	// org-a 用完额度
	resp, err := appA.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = appA.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// org-b 不受影响
	resp, err = appB.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
