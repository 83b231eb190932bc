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
 * @file: router_usage.go
 * @description: usage tracking router
 */

func (rt *Router) usageRouter(r fiber.Router, handlers ...fiber.Handler) {
	usageGroup := r.Group("/usage", handlers...)
	{
		usageGroup.Post("/track", rt.trackUsage)
		usageGroup.Get("/current/:orgId", rt.getCurrentUsage)
		usageGroup.Get("/summary/:orgId", rt.getUsageSummary)
		usageGroup.Get("/period/:orgId", rt.getUsageInPeriod)
		usageGroup.Get("/list/:orgId", rt.listUsage)
	}
}

type trackUsageReq struct {
	OrgId      string `json:"orgId"`
	UserId     string `json:"userId"`
	MetricType string `json:"metricType"`
	Value      int64  `json:"value"`
}

func (rt *Router) trackUsage(c *fiber.Ctx) error {
	var req trackUsageReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	var err error
	if req.UserId != "" {
		err = rt.usageService.TrackUsageForUser(req.OrgId, req.UserId, req.MetricType, req.Value)
	} else {
		err = rt.usageService.TrackUsage(req.OrgId, req.MetricType, req.Value)
	}
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) getCurrentUsage(c *fiber.Ctx) error {
	metricType := c.Query("metricType")
	if metricType == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "metricType is required", c.Path())
	}

	total, err := rt.usageService.GetCurrentUsage(c.Params("orgId"), metricType)
	if err != nil {
		return respondErr(c, err)
	}

	result := make(map[string]interface{})
	result["metricType"] = metricType
	result["total"] = total

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) getUsageSummary(c *fiber.Ctx) error {
	summary, err := rt.usageService.AllUsageMetrics(c.Params("orgId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, summary)
	return nil
}

func (rt *Router) getUsageInPeriod(c *fiber.Ctx) error {
	metricType := c.Query("metricType")
	start, errStart := time.Parse(time.RFC3339, c.Query("start"))
	end, errEnd := time.Parse(time.RFC3339, c.Query("end"))
	if metricType == "" || errStart != nil || errEnd != nil {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "metricType, start and end are required", c.Path())
	}

	total, err := rt.usageService.GetUsageInPeriod(c.Params("orgId"), metricType, start, end)
	if err != nil {
		return respondErr(c, err)
	}

	result := make(map[string]interface{})
	result["metricType"] = metricType
	result["total"] = total

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) listUsage(c *fiber.Ctx) error {
	pageNum := queryInt(c, "pageNum", 1)
	pageSize := queryInt(c, "pageSize", 10)

	events, count, err := rt.usageService.ListUsage(c.Params("orgId"), pageNum, pageSize)
	if err != nil {
		return respondErr(c, err)
	}

	result := make(map[string]interface{})
	result["events"] = events
	result["count"] = count

	c.Locals(constant.DETAIL, result)
	return nil
}
