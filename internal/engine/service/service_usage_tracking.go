package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/pkg/id"
	"github.com/tenantry/tenantry/pkg/metrics"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/13
 * @file: service_usage_tracking.go
 * @description: 用量计量服务
 */

// UsageTrackingService 用量计量
// 事件只追加不修改，读取端聚合求和；修正以追加事件表达。
type UsageTrackingService struct {
	usageRepo repo.IUsageTrackingRepository

	// 可注入时钟，便于测试固定时间
	now func() time.Time
}

func NewUsageTrackingService(usageRepo repo.IUsageTrackingRepository) *UsageTrackingService {
	return &UsageTrackingService{
		usageRepo: usageRepo,
		now:       time.Now,
	}
}

// TrackUsage 追加一条用量事件
func (s *UsageTrackingService) TrackUsage(orgId, metricType string, value int64) error {
	return s.TrackUsageForUser(orgId, "", metricType, value)
}

// TrackUsageForUser 追加一条带触发用户的用量事件
func (s *UsageTrackingService) TrackUsageForUser(orgId, userId, metricType string, value int64) error {
	if orgId == "" || metricType == "" {
		return fmt.Errorf("%w: orgId and metricType are required", ErrInvalidArgument)
	}

	// 事件 id 用 ulid，append-only 流上按时间可排序
	event := &model.UsageTracking{
		EventId:    id.GetUlid(),
		OrgId:      orgId,
		UserId:     userId,
		MetricType: metricType,
		Value:      value,
		RecordedAt: s.now(),
	}
	if err := s.usageRepo.CreateEvent(event); err != nil {
		return fmt.Errorf("track usage failed: %w", err)
	}

	metrics.UsageEventsTotal.WithLabelValues(metricType).Inc()
	return nil
}

// IncrementUsage TrackUsage 的 value=1 简写，供准入网关使用
func (s *UsageTrackingService) IncrementUsage(_ context.Context, orgId, metricType string) error {
	return s.TrackUsage(orgId, metricType, 1)
}

// GetCurrentUsage 当月第一秒到当前时刻的用量之和
func (s *UsageTrackingService) GetCurrentUsage(orgId, metricType string) (int64, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.usageRepo.SumInPeriod(orgId, metricType, monthStart, now)
}

// GetUsageInPeriod 任意显式窗口内的用量之和
func (s *UsageTrackingService) GetUsageInPeriod(orgId, metricType string, start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: period end before start", ErrInvalidArgument)
	}
	return s.usageRepo.SumInPeriod(orgId, metricType, start, end)
}

// IsWithinLimit 严格小于：用量恰好等于上限即视为超出
func (s *UsageTrackingService) IsWithinLimit(orgId, metricType string, limit int64) (bool, error) {
	current, err := s.GetCurrentUsage(orgId, metricType)
	if err != nil {
		return false, err
	}
	return current < limit, nil
}

// AllUsageMetrics 当月所有指标的用量汇总
func (s *UsageTrackingService) AllUsageMetrics(orgId string) (map[string]int64, error) {
	summary := make(map[string]int64, len(model.AllMetricTypes))
	for _, metricType := range model.AllMetricTypes {
		total, err := s.GetCurrentUsage(orgId, metricType)
		if err != nil {
			return nil, fmt.Errorf("sum %s failed: %w", metricType, err)
		}
		summary[metricType] = total
	}
	return summary, nil
}

// ListUsage 分页查询组织用量事件
func (s *UsageTrackingService) ListUsage(orgId string, pageNum, pageSize int) ([]*model.UsageTracking, int64, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.usageRepo.ListByOrgId(orgId, (pageNum-1)*pageSize, pageSize)
}
