package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/pkg/http"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/4 10:47
 * @file: router_feature_flag.go
 * @description: feature flag router
 */

func (rt *Router) featureFlagRouter(r fiber.Router, handlers ...fiber.Handler) {
	flagGroup := r.Group("/flag", handlers...)
	{
		flagGroup.Post("/add", rt.addFlag)
		flagGroup.Get("/list", rt.listFlags)
		flagGroup.Get("/get/:flagKey", rt.getFlag)
		flagGroup.Get("/evaluate/:flagKey", rt.evaluateFlag)
		flagGroup.Post("/enable/:flagKey", rt.enableFlag)
		flagGroup.Post("/disable/:flagKey", rt.disableFlag)
		flagGroup.Post("/rollout/:flagKey", rt.setRolloutPercentage)
		flagGroup.Post("/targets/:flagKey", rt.setTargetOrganizations)
	}
}

type addFlagReq struct {
	FlagKey     string `json:"flagKey"`
	Description string `json:"description"`
}

type rolloutReq struct {
	Percentage int `json:"percentage"`
}

type targetsReq struct {
	OrgIds []string `json:"orgIds"`
}

func (rt *Router) addFlag(c *fiber.Ctx) error {
	var req addFlagReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	flag, err := rt.flagService.CreateFlag(req.FlagKey, req.Description)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, flag)
	return nil
}

func (rt *Router) getFlag(c *fiber.Ctx) error {
	flag, err := rt.flagService.GetFlag(c.Params("flagKey"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, flag)
	return nil
}

func (rt *Router) listFlags(c *fiber.Ctx) error {
	flags, err := rt.flagService.ListFlags()
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, flags)
	return nil
}

// evaluateFlag 灰度判定，orgId 为空时按全局百分比判定
func (rt *Router) evaluateFlag(c *fiber.Ctx) error {
	flagKey := c.Params("flagKey")
	orgId := c.Query("orgId")

	var enabled bool
	if orgId != "" {
		enabled = rt.flagService.IsEnabledForOrganization(flagKey, orgId)
	} else {
		enabled = rt.flagService.IsEnabled(flagKey)
	}

	result := make(map[string]interface{})
	result["flagKey"] = flagKey
	result["enabled"] = enabled

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) enableFlag(c *fiber.Ctx) error {
	if err := rt.flagService.EnableFlag(c.Params("flagKey")); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) disableFlag(c *fiber.Ctx) error {
	if err := rt.flagService.DisableFlag(c.Params("flagKey")); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) setRolloutPercentage(c *fiber.Ctx) error {
	var req rolloutReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.flagService.SetRolloutPercentage(c.Params("flagKey"), req.Percentage); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) setTargetOrganizations(c *fiber.Ctx) error {
	var req targetsReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.flagService.SetTargetOrganizations(c.Params("flagKey"), req.OrgIds); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}
