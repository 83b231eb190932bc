package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantry/tenantry/internal/engine/model"
	"gorm.io/gorm"
)

// fakeSubRepo 内存订阅仓储
type fakeSubRepo struct {
	subs map[string]*model.Subscription // key: subId
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[string]*model.Subscription)}
}

func (f *fakeSubRepo) CreateSubscription(s *model.Subscription) error {
	f.subs[s.SubId] = s
	return nil
}

func (f *fakeSubRepo) GetBySubId(subId string) (*model.Subscription, error) {
	s, ok := f.subs[subId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSubRepo) GetByOrgId(orgId string) (*model.Subscription, error) {
	var latest *model.Subscription
	for _, s := range f.subs {
		if s.OrgId == orgId {
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeSubRepo) GetActiveByOrgId(orgId string) (*model.Subscription, error) {
	for _, s := range f.subs {
		if s.OrgId == orgId && s.IsActive() {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubRepo) UpdateSubscription(subId string, updates map[string]interface{}) error {
	s, ok := f.subs[subId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"]; ok {
		s.Status = v.(string)
	}
	if v, ok := updates["plan_id"]; ok {
		s.PlanId = v.(string)
	}
	if v, ok := updates["canceled_at"]; ok {
		if v == nil {
			s.CanceledAt = nil
		} else {
			t := v.(time.Time)
			s.CanceledAt = &t
		}
	}
	if v, ok := updates["cancel_at"]; ok {
		if v == nil {
			s.CancelAt = nil
		} else {
			t := v.(time.Time)
			s.CancelAt = &t
		}
	}
	if v, ok := updates["cancel_at_period_end"]; ok {
		s.CancelAtPeriodEnd = v.(bool)
	}
	return nil
}

// fakePlanRepo 内存计划仓储
type fakePlanRepo struct {
	plans       map[string]*model.SubscriptionPlan // key: planId
	lastUpdates map[string]interface{}
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*model.SubscriptionPlan)}
}

func (f *fakePlanRepo) CreatePlan(p *model.SubscriptionPlan) error {
	f.plans[p.PlanId] = p
	return nil
}

func (f *fakePlanRepo) GetByPlanId(planId string) (*model.SubscriptionPlan, error) {
	p, ok := f.plans[planId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakePlanRepo) ListActivePlans() ([]*model.SubscriptionPlan, error) {
	var out []*model.SubscriptionPlan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlanRepo) UpdatePlan(planId string, updates map[string]interface{}) error {
	f.lastUpdates = updates
	return nil
}

func newSubService() (*SubscriptionService, *fakeSubRepo, *fakePlanRepo, *fakeOrgRepo) {
	subRepo := newFakeSubRepo()
	planRepo := newFakePlanRepo()
	orgRepo := newFakeOrgRepo()
	orgRepo.orgs["org-1"] = &model.Organization{OrgId: "org-1", Slug: "org-1", IsActive: true}
	return NewSubscriptionService(subRepo, planRepo, orgRepo), subRepo, planRepo, orgRepo
}

func proPlan() *model.SubscriptionPlan {
	maxUsers := 10
	maxCalls := 1000
	return &model.SubscriptionPlan{
		PlanId:             "plan-pro",
		Name:               "Pro",
		Tier:               model.PlanTierPro,
		PriceMonthly:       29,
		PriceYearly:        290,
		MaxUsers:           &maxUsers,
		MaxApiCallsPerHour: &maxCalls,
		ApiAccess:          true,
		AdvancedAnalytics:  true,
		IsActive:           true,
		TrialDays:          14,
	}
}

func TestCreateSubscription(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, sub.Status)
	assert.Equal(t, float64(29), sub.Amount)

	// 月付周期按日历推进一个月
	wantEnd := sub.CurrentPeriodStart.AddDate(0, 1, 0)
	assert.Equal(t, wantEnd, sub.CurrentPeriodEnd)

	// 同组织不允许第二条 ACTIVE 订阅
	_, err = svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	assert.ErrorIs(t, err, ErrDuplicateSubscription)
}

func TestCreateSubscription_Yearly(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalYearly)
	require.NoError(t, err)
	assert.Equal(t, float64(290), sub.Amount)
	assert.Equal(t, sub.CurrentPeriodStart.AddDate(1, 0, 0), sub.CurrentPeriodEnd)
}

func TestCreateSubscription_InvalidInterval(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	_, err := svc.CreateSubscription("org-1", "plan-pro", "WEEKLY")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCancelSubscription_Immediate(t *testing.T) {
	svc, subRepo, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)

	require.NoError(t, svc.CancelSubscription(sub.SubId, true))

	got := subRepo.subs[sub.SubId]
	assert.Equal(t, model.SubStatusCanceled, got.Status)
	assert.NotNil(t, got.CanceledAt)

	// 立即取消后权益立刻失效
	assert.False(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))
}

func TestCancelSubscription_AtPeriodEnd(t *testing.T) {
	svc, subRepo, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)

	require.NoError(t, svc.CancelSubscription(sub.SubId, false))

	got := subRepo.subs[sub.SubId]
	assert.Equal(t, model.SubStatusPendingCancellation, got.Status)
	assert.True(t, got.CancelAtPeriodEnd)
	require.NotNil(t, got.CancelAt)
	assert.Equal(t, sub.CurrentPeriodEnd, *got.CancelAt)

	// 周期结束前权益仍然有效
	assert.True(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))

	// 周期结束后失效
	got.CurrentPeriodEnd = time.Now().Add(-time.Minute)
	assert.False(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))
}

func TestReactivateSubscription(t *testing.T) {
	svc, subRepo, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)

	// ACTIVE 状态不可 reactivate
	assert.ErrorIs(t, svc.ReactivateSubscription(sub.SubId), ErrNotCancellable)

	require.NoError(t, svc.CancelSubscription(sub.SubId, true))
	require.NoError(t, svc.ReactivateSubscription(sub.SubId))

	got := subRepo.subs[sub.SubId]
	assert.Equal(t, model.SubStatusActive, got.Status)
	assert.Nil(t, got.CanceledAt)
	assert.Nil(t, got.CancelAt)
}

func TestNoTwoActiveSubscriptions_AcrossHistory(t *testing.T) {
	svc, subRepo, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	// 历史：A 创建后取消，B 创建后取消，再复活 A
	subA, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	require.NoError(t, svc.CancelSubscription(subA.SubId, true))

	subB, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	require.NoError(t, svc.CancelSubscription(subB.SubId, true))

	require.NoError(t, svc.ReactivateSubscription(subA.SubId))

	// 此时最近一条是 B(CANCELED)，但 A 已经 ACTIVE，不允许再开通
	_, err = svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	assert.ErrorIs(t, err, ErrDuplicateSubscription)
	_, err = svc.StartTrial("org-1", "plan-pro", model.BillingIntervalMonthly)
	assert.ErrorIs(t, err, ErrDuplicateSubscription)

	// 已有 ACTIVE 订阅时不允许再复活另一条
	assert.ErrorIs(t, svc.ReactivateSubscription(subB.SubId), ErrDuplicateSubscription)

	active := 0
	for _, s := range subRepo.subs {
		if s.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestChangePlan_KeepsPeriod(t *testing.T) {
	svc, subRepo, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())
	planRepo.CreatePlan(&model.SubscriptionPlan{
		PlanId: "plan-enterprise", Name: "Enterprise", Tier: model.PlanTierEnterprise,
		PriceMonthly: 99, PriceYearly: 990, IsActive: true,
	})

	sub, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	origEnd := sub.CurrentPeriodEnd

	_, err = svc.ChangePlan("org-1", "plan-enterprise")
	require.NoError(t, err)

	got := subRepo.subs[sub.SubId]
	assert.Equal(t, "plan-enterprise", got.PlanId)
	// 升降级不重置计费周期
	assert.Equal(t, origEnd, got.CurrentPeriodEnd)
}

func TestHasFeatureAccess(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	// 无订阅即无权益
	assert.False(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))

	_, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)

	assert.True(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))
	assert.True(t, svc.HasFeatureAccess("org-1", FeatureAdvancedAnalytics))
	// 计划未开通的权益
	assert.False(t, svc.HasFeatureAccess("org-1", FeatureWhiteLabel))
	// 未知权益名
	assert.False(t, svc.HasFeatureAccess("org-1", "no_such_feature"))
}

func TestIsWithinQuota_StrictBoundary(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	_, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)

	// maxUsers=10，严格小于
	assert.True(t, svc.IsWithinQuota("org-1", QuotaUsers, 9))
	assert.False(t, svc.IsWithinQuota("org-1", QuotaUsers, 10))
	assert.False(t, svc.IsWithinQuota("org-1", QuotaUsers, 11))

	// nil 上限视为不限
	assert.True(t, svc.IsWithinQuota("org-1", QuotaAds, 1<<40))

	// 未知配额类型拒绝
	assert.False(t, svc.IsWithinQuota("org-1", "no_such_quota", 0))
}

func TestMaxApiCallsPerHour(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	// 无订阅时返回 0，由网关退回默认值
	assert.Equal(t, 0, svc.MaxApiCallsPerHour(context.Background(), "org-1"))

	_, err := svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, 1000, svc.MaxApiCallsPerHour(context.Background(), "org-1"))
}

func TestStartTrial(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	sub, err := svc.StartTrial("org-1", "plan-pro", model.BillingIntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *sub.TrialEnd, time.Minute)

	// 试用期内权益可用
	assert.True(t, svc.HasFeatureAccess("org-1", FeatureApiAccess))

	// 试用中不可再开订阅
	_, err = svc.CreateSubscription("org-1", "plan-pro", model.BillingIntervalMonthly)
	assert.ErrorIs(t, err, ErrDuplicateSubscription)
}

func TestUpdatePlan_Allowlist(t *testing.T) {
	svc, _, planRepo, _ := newSubService()
	planRepo.CreatePlan(proPlan())

	err := svc.UpdatePlan("plan-pro", map[string]interface{}{
		"price_monthly": float64(39),
		"max_users":     100,
		"plan_id":       "plan-hijacked",
		"name":          "renamed",
		"created_at":    "1970-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"price_monthly": float64(39),
		"max_users":     100,
	}, planRepo.lastUpdates)
}
