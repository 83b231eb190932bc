package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/internal/engine/service"
	"github.com/tenantry/tenantry/pkg/http"
	"github.com/tenantry/tenantry/pkg/http/middleware"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/4 10:47
 * @file: router_external.go
 * @description: external api router, authenticated by api key
 *  		     org scope comes from the key, never from the request
 */

func (rt *Router) externalRouter(r fiber.Router) {
	// 每条路由绑定自己的 scope，密钥按最小授权签发
	r.Get("/subscription", rt.extScope(service.ScopeSubscriptionRead), rt.extGetSubscription)
	r.Get("/feature/:feature", rt.extScope(service.ScopeFeatureRead), rt.extCheckFeature)
	r.Get("/flag/:flagKey", rt.extScope(service.ScopeFlagRead), rt.extEvaluateFlag)
	r.Get("/usage/current", rt.extScope(service.ScopeUsageRead), rt.extGetCurrentUsage)
	r.Post("/usage/track", rt.extScope(service.ScopeUsageWrite), rt.extTrackUsage)
}

func (rt *Router) extScope(scope string) fiber.Handler {
	return middleware.RequireScope(rt.keyService, scope)
}

func extOrgId(c *fiber.Ctx) (string, bool) {
	orgId, ok := c.Locals(constant.OrgId).(string)
	return orgId, ok && orgId != ""
}

func (rt *Router) extGetSubscription(c *fiber.Ctx) error {
	orgId, ok := extOrgId(c)
	if !ok {
		return http.WithRepErrMsg(c, http.OrgIdIsEmpty.Code, http.OrgIdIsEmpty.Msg, c.Path())
	}

	sub, err := rt.subService.GetSubscription(orgId)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, sub)
	return nil
}

func (rt *Router) extCheckFeature(c *fiber.Ctx) error {
	orgId, ok := extOrgId(c)
	if !ok {
		return http.WithRepErrMsg(c, http.OrgIdIsEmpty.Code, http.OrgIdIsEmpty.Msg, c.Path())
	}

	result := make(map[string]interface{})
	result["feature"] = c.Params("feature")
	result["hasAccess"] = rt.subService.HasFeatureAccess(orgId, c.Params("feature"))

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) extEvaluateFlag(c *fiber.Ctx) error {
	orgId, ok := extOrgId(c)
	if !ok {
		return http.WithRepErrMsg(c, http.OrgIdIsEmpty.Code, http.OrgIdIsEmpty.Msg, c.Path())
	}

	result := make(map[string]interface{})
	result["flagKey"] = c.Params("flagKey")
	result["enabled"] = rt.flagService.IsEnabledForOrganization(c.Params("flagKey"), orgId)

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) extGetCurrentUsage(c *fiber.Ctx) error {
	orgId, ok := extOrgId(c)
	if !ok {
		return http.WithRepErrMsg(c, http.OrgIdIsEmpty.Code, http.OrgIdIsEmpty.Msg, c.Path())
	}

	metricType := c.Query("metricType")
	if metricType == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "metricType is required", c.Path())
	}

	total, err := rt.usageService.GetCurrentUsage(orgId, metricType)
	if err != nil {
		return respondErr(c, err)
	}

	result := make(map[string]interface{})
	result["metricType"] = metricType
	result["total"] = total

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) extTrackUsage(c *fiber.Ctx) error {
	orgId, ok := extOrgId(c)
	if !ok {
		return http.WithRepErrMsg(c, http.OrgIdIsEmpty.Code, http.OrgIdIsEmpty.Msg, c.Path())
	}

	var req trackUsageReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.usageService.TrackUsage(orgId, req.MetricType, req.Value); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}
