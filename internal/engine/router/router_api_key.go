package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/pkg/http"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/4 10:47
 * @file: router_api_key.go
 * @description: api key router
 */

func (rt *Router) apiKeyRouter(r fiber.Router, handlers ...fiber.Handler) {
	keyGroup := r.Group("/apiKey", handlers...)
	{
		keyGroup.Post("/create", rt.createApiKey)
		keyGroup.Get("/list/:orgId", rt.listApiKeys)
		keyGroup.Post("/revoke", rt.revokeApiKey)
	}
}

type createApiKeyReq struct {
	OrgId     string     `json:"orgId"`
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type revokeApiKeyReq struct {
	KeyId string `json:"keyId"`
}

func (rt *Router) createApiKey(c *fiber.Ctx) error {
	var req createApiKeyReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	userId, _ := c.Locals(constant.UserId).(string)
	apiKey, plaintext, err := rt.keyService.CreateApiKey(req.OrgId, userId, req.Name, req.Scopes, req.ExpiresAt)
	if err != nil {
		return respondErr(c, err)
	}

	// 明文密钥仅在创建响应中出现一次
	result := make(map[string]interface{})
	result["apiKey"] = apiKey
	result["key"] = plaintext

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) listApiKeys(c *fiber.Ctx) error {
	keys, err := rt.keyService.GetOrganizationApiKeys(c.Params("orgId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, keys)
	return nil
}

func (rt *Router) revokeApiKey(c *fiber.Ctx) error {
	var req revokeApiKeyReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	revokedBy, _ := c.Locals(constant.UserId).(string)
	if err := rt.keyService.RevokeApiKey(req.KeyId, revokedBy); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}
