package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/internal/engine/model"
)

type stubKeyValidator struct {
	key     *model.ApiKey
	scopes  map[string]bool
	tracked []string
}

func (s *stubKeyValidator) ValidateApiKey(_ context.Context, keyString string) (*model.ApiKey, error) {
	if s.key == nil || keyString != "tn_live_valid" {
		return nil, errors.New("invalid credential")
	}
	return s.key, nil
}

func (s *stubKeyValidator) HasScope(_ *model.ApiKey, scope string) bool {
	return s.scopes[scope]
}

func (s *stubKeyValidator) TrackApiKeyUsage(_ context.Context, keyId string) error {
	s.tracked = append(s.tracked, keyId)
	return nil
}

func newApiKeyApp(validator *stubKeyValidator, requiredScope string) *fiber.App {
	app := fiber.New()
	app.Use(ApiKeyMiddleware(validator, requiredScope))
	app.Get("/api/v1/ads", func(c *fiber.Ctx) error {
		orgId, _ := c.Locals(constant.OrgId).(string)
		return c.SendString(orgId)
	})
	return app
}

func validStub() *stubKeyValidator {
	return &stubKeyValidator{
		key:    &model.ApiKey{KeyId: "key-1", OrgId: "org-1", CreatedBy: "u1"},
		scopes: map[string]bool{"ads:read": true},
	}
}

func TestApiKeyMiddleware_XApiKeyHeader(t *testing.T) {
	validator := validStub()
	app := newApiKeyApp(validator, "ads:read")

	req := httptest.NewRequest("GET", "/api/v1/ads", nil)
	req.Header.Set("X-API-Key", "tn_live_valid")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// 校验通过即记一次使用
	assert.Equal(t, []string{"key-1"}, validator.tracked)
}

func TestApiKeyMiddleware_BearerFallback(t *testing.T) {
	validator := validStub()
	app := newApiKeyApp(validator, "")

	req := httptest.NewRequest("GET", "/api/v1/ads", nil)
	req.Header.Set("Authorization", "Bearer tn_live_valid")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestApiKeyMiddleware_MissingKey(t *testing.T) {
	app := newApiKeyApp(validStub(), "")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ads", nil))
	require.NoError(t, err)
	// 统一响应体，HTTP 状态仍为 200，错误码在 body
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestApiKeyMiddleware_InvalidKey(t *testing.T) {
	validator := validStub()
	app := newApiKeyApp(validator, "")

	req := httptest.NewRequest("GET", "/api/v1/ads", nil)
	req.Header.Set("X-API-Key", "tn_live_wrong")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	// 无效凭据不记使用
	assert.Empty(t, validator.tracked)
}

func TestApiKeyMiddleware_ScopeDenied(t *testing.T) {
	validator := validStub()
	app := newApiKeyApp(validator, "ads:write")

	req := httptest.NewRequest("GET", "/api/v1/ads", nil)
	req.Header.Set("X-API-Key", "tn_live_valid")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	// scope 不足时短路，不记使用
	assert.Empty(t, validator.tracked)
}

func TestRequireScope_PerRoute(t *testing.T) {
	validator := validStub()
	validator.scopes = map[string]bool{"usage:read": true}

	app := fiber.New()
	app.Use(ApiKeyMiddleware(validator, ""))
	app.Get("/ext/v1/usage/current", RequireScope(validator, "usage:read"), func(c *fiber.Ctx) error {
		return c.SendString("read-ok")
	})
	app.Post("/ext/v1/usage/track", RequireScope(validator, "usage:write"), func(c *fiber.Ctx) error {
		return c.SendString("write-ok")
	})

	// 只持有 usage:read 的密钥：读路由放行
	req := httptest.NewRequest("GET", "/ext/v1/usage/current", nil)
	req.Header.Set("X-API-Key", "tn_live_valid")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "read-ok", string(body))

	// 写路由被同一把密钥拒绝
	req = httptest.NewRequest("POST", "/ext/v1/usage/track", nil)
	req.Header.Set("X-API-Key", "tn_live_valid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "4410")
}

func TestRequireScope_WithoutAuthContext(t *testing.T) {
	validator := validStub()

	// 前置认证缺位时 locals 没有密钥，按无效凭据拒绝
	app := fiber.New()
	app.Get("/ext/v1/subscription", RequireScope(validator, "subscription:read"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ext/v1/subscription", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "4409")
}
