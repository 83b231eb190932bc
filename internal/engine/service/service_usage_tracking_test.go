package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantry/tenantry/internal/engine/model"
)

// fakeUsageRepo 内存用量仓储，只追加
type fakeUsageRepo struct {
	events []*model.UsageTracking
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{}
}

func (f *fakeUsageRepo) CreateEvent(e *model.UsageTracking) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeUsageRepo) SumInPeriod(orgId, metricType string, start, end time.Time) (int64, error) {
	var total int64
	for _, e := range f.events {
		if e.OrgId == orgId && e.MetricType == metricType &&
			!e.RecordedAt.Before(start) && !e.RecordedAt.After(end) {
			total += e.Value
		}
	}
	return total, nil
}

func (f *fakeUsageRepo) ListByOrgId(orgId string, offset, limit int) ([]*model.UsageTracking, int64, error) {
	var out []*model.UsageTracking
	for _, e := range f.events {
		if e.OrgId == orgId {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func newUsageService() (*UsageTrackingService, *fakeUsageRepo) {
	usageRepo := newFakeUsageRepo()
	return NewUsageTrackingService(usageRepo), usageRepo
}

func TestTrackUsage(t *testing.T) {
	svc, usageRepo := newUsageService()

	require.NoError(t, svc.TrackUsage("org-1", model.MetricAdsCreated, 3))
	require.NoError(t, svc.TrackUsageForUser("org-1", "u1", model.MetricAdsCreated, 2))
	require.NoError(t, svc.IncrementUsage(context.Background(), "org-1", model.MetricApiCalls))

	assert.Len(t, usageRepo.events, 3)
	assert.Equal(t, "u1", usageRepo.events[1].UserId)
	assert.Equal(t, int64(1), usageRepo.events[2].Value)

	current, err := svc.GetCurrentUsage("org-1", model.MetricAdsCreated)
	require.NoError(t, err)
	assert.Equal(t, int64(5), current)
}

func TestTrackUsage_MissingArgs(t *testing.T) {
	svc, _ := newUsageService()

	assert.ErrorIs(t, svc.TrackUsage("", model.MetricApiCalls, 1), ErrInvalidArgument)
	assert.ErrorIs(t, svc.TrackUsage("org-1", "", 1), ErrInvalidArgument)
}

func TestGetCurrentUsage_MonthBoundary(t *testing.T) {
	svc, usageRepo := newUsageService()

	// 固定当前时刻在月中
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// 上月末的事件不计入本月
	usageRepo.events = append(usageRepo.events,
		&model.UsageTracking{OrgId: "org-1", MetricType: model.MetricApiCalls, Value: 100,
			RecordedAt: time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC)},
		&model.UsageTracking{OrgId: "org-1", MetricType: model.MetricApiCalls, Value: 7,
			RecordedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		&model.UsageTracking{OrgId: "org-1", MetricType: model.MetricApiCalls, Value: 5,
			RecordedAt: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)},
	)

	current, err := svc.GetCurrentUsage("org-1", model.MetricApiCalls)
	require.NoError(t, err)
	assert.Equal(t, int64(12), current)
}

func TestGetUsageInPeriod(t *testing.T) {
	svc, usageRepo := newUsageService()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		usageRepo.events = append(usageRepo.events, &model.UsageTracking{
			OrgId: "org-1", MetricType: model.MetricMessagesSent, Value: 1,
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	total, err := svc.GetUsageInPeriod("org-1", model.MetricMessagesSent, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// 窗口颠倒
	_, err = svc.GetUsageInPeriod("org-1", model.MetricMessagesSent, base.Add(time.Hour), base)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsWithinLimit_StrictBoundary(t *testing.T) {
	svc, _ := newUsageService()

	require.NoError(t, svc.TrackUsage("org-1", model.MetricAdsCreated, 10))

	// 严格小于：恰好等于上限即越界
	ok, err := svc.IsWithinLimit("org-1", model.MetricAdsCreated, 11)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsWithinLimit("org-1", model.MetricAdsCreated, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllUsageMetrics(t *testing.T) {
	svc, _ := newUsageService()

	require.NoError(t, svc.TrackUsage("org-1", model.MetricApiCalls, 3))
	require.NoError(t, svc.TrackUsage("org-1", model.MetricAdsCreated, 2))
	require.NoError(t, svc.TrackUsage("org-2", model.MetricApiCalls, 9))

	summary, err := svc.AllUsageMetrics("org-1")
	require.NoError(t, err)
	assert.Len(t, summary, len(model.AllMetricTypes))
	assert.Equal(t, int64(3), summary[model.MetricApiCalls])
	assert.Equal(t, int64(2), summary[model.MetricAdsCreated])
	assert.Equal(t, int64(0), summary[model.MetricStorageUsed])
}
