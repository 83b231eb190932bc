// Copyright 2025 Tenantry Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/pkg/log"
	"github.com/tenantry/tenantry/pkg/metrics"
	"github.com/tenantry/tenantry/pkg/ratelimit"
)

// PlanResolver resolves the hourly api call ceiling for an organization.
// A zero or negative result means the chain (org -> subscription -> plan)
// could not supply one; the gate falls back to the configured default.
type PlanResolver interface {
	MaxApiCallsPerHour(ctx context.Context, orgId string) int
}

// UsageRecorder appends a usage event for a metric.
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, orgId string, metric string) error
}

// RateLimitMiddleware 准入限流中间件
// 以 组织id:小时桶 为 key 计数；上限取自订阅计划的 maxApiCallsPerHour，
// 链路缺失时退回默认值（宽松放行，而非拒绝）。
// 每个被限流覆盖的请求都会记一条 API_CALLS 用量事件，包括被拒绝的请求。
func RateLimitMiddleware(conf ratelimit.Conf, store ratelimit.CounterStore, plans PlanResolver, usage UsageRecorder) fiber.Handler {
	publicPrefixes := []string{
		"/health",
		"/version",
		"/metrics",
		"/api/v1/auth/",
	}

	window := conf.Window()

	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, p := range publicPrefixes {
			if strings.HasPrefix(path, p) {
				return c.Next()
			}
		}

		// 未绑定组织的请求不做限流
		orgId, _ := c.Locals(constant.OrgId).(string)
		if orgId == "" {
			return c.Next()
		}

		ctx := c.UserContext()

		// 记一次 API_CALLS 用量，拒绝的请求同样计入
		if err := usage.IncrementUsage(ctx, orgId, "API_CALLS"); err != nil {
			log.Warnw("failed to record api call usage", "orgId", orgId, "error", err)
		}

		limit := plans.MaxApiCallsPerHour(ctx, orgId)
		if limit <= 0 {
			limit = conf.DefaultLimit
		}

		key := orgId + ":" + time.Now().Truncate(time.Hour).Format("2006010215")
		count, windowStart, err := store.Incr(ctx, key)
		if err != nil {
			// 计数器不可用时放行
			log.Errorw("rate limit counter unavailable", "orgId", orgId, "error", err)
			return c.Next()
		}

		if count > int64(limit) {
			metrics.AdmissionDeniedTotal.WithLabelValues(orgId).Inc()
			log.Warnw("rate limit exceeded", "orgId", orgId, "count", count, "limit", limit)

			c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", strconv.FormatInt(windowStart.Add(window).Unix(), 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}

		metrics.AdmissionAllowedTotal.WithLabelValues(orgId).Inc()
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
		return c.Next()
	}
}
