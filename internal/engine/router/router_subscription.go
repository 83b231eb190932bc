package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/http"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/4 10:47
 * @file: router_subscription.go
 * @description: subscription plan and lifecycle router
 */

func (rt *Router) subscriptionRouter(r fiber.Router, handlers ...fiber.Handler) {
	planGroup := r.Group("/plan", handlers...)
	{
		planGroup.Post("/add", rt.addPlan)
		planGroup.Get("/list", rt.listPlans)
		planGroup.Get("/get/:planId", rt.getPlan)
		planGroup.Post("/update/:planId", rt.updatePlan)
	}

	subGroup := r.Group("/subscription", handlers...)
	{
		subGroup.Post("/create", rt.createSubscription)
		subGroup.Post("/trial", rt.startTrial)
		subGroup.Get("/get/:orgId", rt.getSubscription)
		subGroup.Post("/changePlan", rt.changePlan)
		subGroup.Post("/cancel", rt.cancelSubscription)
		subGroup.Post("/reactivate", rt.reactivateSubscription)
		subGroup.Get("/feature/:orgId/:feature", rt.checkFeatureAccess)
		subGroup.Get("/quota/:orgId", rt.checkQuota)
	}
}

type createSubscriptionReq struct {
	OrgId    string `json:"orgId"`
	PlanId   string `json:"planId"`
	Interval string `json:"interval"`
}

type changePlanReq struct {
	OrgId     string `json:"orgId"`
	NewPlanId string `json:"newPlanId"`
}

type cancelSubscriptionReq struct {
	SubId     string `json:"subId"`
	Immediate bool   `json:"immediate"`
}

func (rt *Router) addPlan(c *fiber.Ctx) error {
	var plan *model.SubscriptionPlan
	if err := c.BodyParser(&plan); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	created, err := rt.subService.CreatePlan(plan)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, created)
	return nil
}

func (rt *Router) getPlan(c *fiber.Ctx) error {
	plan, err := rt.subService.GetPlan(c.Params("planId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, plan)
	return nil
}

func (rt *Router) listPlans(c *fiber.Ctx) error {
	plans, err := rt.subService.ListActivePlans()
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, plans)
	return nil
}

func (rt *Router) updatePlan(c *fiber.Ctx) error {
	updates := make(map[string]interface{})
	if err := c.BodyParser(&updates); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.subService.UpdatePlan(c.Params("planId"), updates); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) createSubscription(c *fiber.Ctx) error {
	var req createSubscriptionReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	sub, err := rt.subService.CreateSubscription(req.OrgId, req.PlanId, req.Interval)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, sub)
	return nil
}

func (rt *Router) startTrial(c *fiber.Ctx) error {
	var req createSubscriptionReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	sub, err := rt.subService.StartTrial(req.OrgId, req.PlanId, req.Interval)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, sub)
	return nil
}

func (rt *Router) getSubscription(c *fiber.Ctx) error {
	sub, err := rt.subService.GetSubscription(c.Params("orgId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, sub)
	return nil
}

func (rt *Router) changePlan(c *fiber.Ctx) error {
	var req changePlanReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	sub, err := rt.subService.ChangePlan(req.OrgId, req.NewPlanId)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, sub)
	return nil
}

func (rt *Router) cancelSubscription(c *fiber.Ctx) error {
	var req cancelSubscriptionReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.subService.CancelSubscription(req.SubId, req.Immediate); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) reactivateSubscription(c *fiber.Ctx) error {
	var req cancelSubscriptionReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.subService.ReactivateSubscription(req.SubId); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) checkFeatureAccess(c *fiber.Ctx) error {
	result := make(map[string]interface{})
	result["feature"] = c.Params("feature")
	result["hasAccess"] = rt.subService.HasFeatureAccess(c.Params("orgId"), c.Params("feature"))

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) checkQuota(c *fiber.Ctx) error {
	quotaType := c.Query("type")
	if quotaType == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "quota type is required", c.Path())
	}
	currentUsage := int64(queryInt(c, "current", 0))

	result := make(map[string]interface{})
	result["quotaType"] = quotaType
	result["withinQuota"] = rt.subService.IsWithinQuota(c.Params("orgId"), quotaType, currentUsage)

	c.Locals(constant.DETAIL, result)
	return nil
}
