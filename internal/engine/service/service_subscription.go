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

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/pkg/id"
	"github.com/tenantry/tenantry/pkg/log"
	"github.com/tenantry/tenantry/pkg/statemachine"
	"gorm.io/gorm"
)

// Feature 权益名
const (
	FeatureCustomBranding    = "custom_branding"
	FeaturePrioritySupport   = "priority_support"
	FeatureApiAccess         = "api_access"
	FeatureAdvancedAnalytics = "advanced_analytics"
	FeatureWhiteLabel        = "white_label"
)

// Quota 配额类型名
const (
	QuotaUsers     = "users"
	QuotaAds       = "ads"
	QuotaStorageMb = "storage_mb"
)

type SubscriptionService struct {
	subRepo  repo.ISubscriptionRepository
	planRepo repo.ISubscriptionPlanRepository
	orgRepo  repo.IOrganizationRepository
}

func NewSubscriptionService(
	subRepo repo.ISubscriptionRepository,
	planRepo repo.ISubscriptionPlanRepository,
	orgRepo repo.IOrganizationRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		planRepo: planRepo,
		orgRepo:  orgRepo,
	}
}

// newSubscriptionFSM 订阅状态机
// 每次校验构建一个以当前状态为起点的实例
func newSubscriptionFSM(current string) *statemachine.StateMachine[string] {
	return statemachine.NewWithState(current).
		Allow(model.SubStatusTrialing, model.SubStatusActive, model.SubStatusCanceled, model.SubStatusPendingCancellation, model.SubStatusPastDue).
		Allow(model.SubStatusActive, model.SubStatusCanceled, model.SubStatusPendingCancellation, model.SubStatusPastDue, model.SubStatusPaused, model.SubStatusUnpaid).
		Allow(model.SubStatusPendingCancellation, model.SubStatusActive, model.SubStatusCanceled).
		Allow(model.SubStatusCanceled, model.SubStatusActive).
		Allow(model.SubStatusPastDue, model.SubStatusActive, model.SubStatusUnpaid, model.SubStatusCanceled).
		Allow(model.SubStatusUnpaid, model.SubStatusActive, model.SubStatusCanceled).
		Allow(model.SubStatusIncomplete, model.SubStatusActive, model.SubStatusIncompleteExpired).
		Allow(model.SubStatusPaused, model.SubStatusActive, model.SubStatusCanceled)
}

// CreatePlan 创建订阅计划
func (s *SubscriptionService) CreatePlan(plan *model.SubscriptionPlan) (*model.SubscriptionPlan, error) {
	if plan.Name == "" || plan.Tier == "" {
		return nil, fmt.Errorf("%w: plan name and tier are required", ErrInvalidArgument)
	}
	if plan.PlanId == "" {
		plan.PlanId = id.GetUUID()
	}
	if err := s.planRepo.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("create plan failed: %w", err)
	}
	return plan, nil
}

// GetPlan 根据计划ID查询
func (s *SubscriptionService) GetPlan(planId string) (*model.SubscriptionPlan, error) {
	plan, err := s.planRepo.GetByPlanId(planId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plan %s", ErrNotFound, planId)
		}
		return nil, fmt.Errorf("get plan failed: %w", err)
	}
	return plan, nil
}

// ListActivePlans 查询全部上架计划
func (s *SubscriptionService) ListActivePlans() ([]*model.SubscriptionPlan, error) {
	return s.planRepo.ListActivePlans()
}

// planUpdatableColumns 计划补丁白名单，plan_id 与 name 创建后不可变
var planUpdatableColumns = map[string]struct{}{
	"display_name":           {},
	"description":            {},
	"tier":                   {},
	"price_monthly":          {},
	"price_yearly":           {},
	"max_users":              {},
	"max_ads":                {},
	"max_storage_mb":         {},
	"max_api_calls_per_hour": {},
	"custom_branding":        {},
	"priority_support":       {},
	"api_access":             {},
	"advanced_analytics":     {},
	"white_label":            {},
	"is_active":              {},
	"trial_days":             {},
}

// UpdatePlan 更新计划，仅白名单列生效
func (s *SubscriptionService) UpdatePlan(planId string, updates map[string]interface{}) error {
	if _, err := s.GetPlan(planId); err != nil {
		return err
	}
	filtered := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		if _, ok := planUpdatableColumns[k]; ok {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.planRepo.UpdatePlan(planId, filtered)
}

// CreateSubscription 为组织开通订阅，初始状态 ACTIVE
// 同一组织不允许持有两条 ACTIVE/TRIALING 订阅
func (s *SubscriptionService) CreateSubscription(orgId, planId, interval string) (*model.Subscription, error) {
	if _, err := s.orgRepo.GetByOrgId(orgId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization %s", ErrNotFound, orgId)
		}
		return nil, fmt.Errorf("get organization failed: %w", err)
	}

	plan, err := s.GetPlan(planId)
	if err != nil {
		return nil, err
	}

	if interval != model.BillingIntervalMonthly && interval != model.BillingIntervalYearly {
		return nil, fmt.Errorf("%w: billing interval %q", ErrInvalidArgument, interval)
	}

	if err := s.checkNoActiveSubscription(orgId, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &model.Subscription{
		SubId:              id.GetUUID(),
		OrgId:              orgId,
		PlanId:             plan.PlanId,
		Status:             model.SubStatusActive,
		BillingInterval:    interval,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   calculatePeriodEnd(now, interval),
		Amount:             planAmount(plan, interval),
	}

	if err := s.subRepo.CreateSubscription(sub); err != nil {
		log.Errorw("create subscription failed", "orgId", orgId, "planId", planId, "error", err)
		return nil, fmt.Errorf("create subscription failed: %w", err)
	}

	log.Infow("success create subscription", "subId", sub.SubId, "orgId", orgId, "planId", planId)
	return sub, nil
}

// StartTrial 以试用状态开通订阅，试用窗口取计划的 trialDays
func (s *SubscriptionService) StartTrial(orgId, planId, interval string) (*model.Subscription, error) {
	plan, err := s.GetPlan(planId)
	if err != nil {
		return nil, err
	}

	if err := s.checkNoActiveSubscription(orgId, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, plan.TrialDays)
	sub := &model.Subscription{
		SubId:              id.GetUUID(),
		OrgId:              orgId,
		PlanId:             plan.PlanId,
		Status:             model.SubStatusTrialing,
		BillingInterval:    interval,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialStart:         &now,
		TrialEnd:           &trialEnd,
	}

	if err := s.subRepo.CreateSubscription(sub); err != nil {
		return nil, fmt.Errorf("start trial failed: %w", err)
	}
	return sub, nil
}

// GetSubscription 查询组织订阅
func (s *SubscriptionService) GetSubscription(orgId string) (*model.Subscription, error) {
	sub, err := s.subRepo.GetByOrgId(orgId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no subscription for organization %s", ErrNotFound, orgId)
		}
		return nil, fmt.Errorf("get subscription failed: %w", err)
	}
	return sub, nil
}

// ChangePlan 升降级，原位换计划引用，不重置计费周期
func (s *SubscriptionService) ChangePlan(orgId, newPlanId string) (*model.Subscription, error) {
	sub, err := s.GetSubscription(orgId)
	if err != nil {
		return nil, err
	}
	plan, err := s.GetPlan(newPlanId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"plan_id": plan.PlanId,
		"amount":  planAmount(plan, sub.BillingInterval),
	}
	if err := s.subRepo.UpdateSubscription(sub.SubId, updates); err != nil {
		return nil, fmt.Errorf("change plan failed: %w", err)
	}
	sub.PlanId = plan.PlanId
	return sub, nil
}

// CancelSubscription 取消订阅
// immediate=true 立即转 CANCELED；否则转 PENDING_CANCELLATION，周期结束前仍可用
func (s *SubscriptionService) CancelSubscription(subId string, immediate bool) error {
	sub, err := s.subRepo.GetBySubId(subId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrNotFound, subId)
		}
		return fmt.Errorf("get subscription failed: %w", err)
	}

	now := time.Now()
	fsm := newSubscriptionFSM(sub.Status)

	if immediate {
		if err := fsm.TransitTo(model.SubStatusCanceled); err != nil {
			return fmt.Errorf("%w: cannot cancel from %s", ErrInvariantViolation, sub.Status)
		}
		return s.subRepo.UpdateSubscription(subId, map[string]interface{}{
			"status":      model.SubStatusCanceled,
			"canceled_at": now,
		})
	}

	if err := fsm.TransitTo(model.SubStatusPendingCancellation); err != nil {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvariantViolation, sub.Status)
	}
	return s.subRepo.UpdateSubscription(subId, map[string]interface{}{
		"status":               model.SubStatusPendingCancellation,
		"cancel_at":            sub.CurrentPeriodEnd,
		"cancel_at_period_end": true,
	})
}

// ReactivateSubscription 仅允许从 CANCELED / PENDING_CANCELLATION 回到 ACTIVE
func (s *SubscriptionService) ReactivateSubscription(subId string) error {
	sub, err := s.subRepo.GetBySubId(subId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrNotFound, subId)
		}
		return fmt.Errorf("get subscription failed: %w", err)
	}

	if sub.Status != model.SubStatusCanceled && sub.Status != model.SubStatusPendingCancellation {
		return ErrNotCancellable
	}

	// 组织可能在取消后又开通了新订阅，复活旧订阅会出现两条 ACTIVE
	if err := s.checkNoActiveSubscription(sub.OrgId, sub.SubId); err != nil {
		return err
	}

	fsm := newSubscriptionFSM(sub.Status)
	if err := fsm.TransitTo(model.SubStatusActive); err != nil {
		return ErrNotCancellable
	}

	return s.subRepo.UpdateSubscription(subId, map[string]interface{}{
		"status":               model.SubStatusActive,
		"canceled_at":          nil,
		"cancel_at":            nil,
		"cancel_at_period_end": false,
	})
}

// checkNoActiveSubscription 同一组织不允许同时存在两条 ACTIVE/TRIALING 订阅
// 历史上可能有多条订阅记录，按状态查而不是按最近一条查；excludeSubId 用于复活自身时跳过
func (s *SubscriptionService) checkNoActiveSubscription(orgId, excludeSubId string) error {
	active, err := s.subRepo.GetActiveByOrgId(orgId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check existing subscription failed: %w", err)
	}
	if active != nil && active.SubId != excludeSubId {
		return ErrDuplicateSubscription
	}
	return nil
}

// HasFeatureAccess 权益检查
// 订阅先要处于 ACTIVE/TRIALING，PENDING_CANCELLATION 在周期结束前同样放行。
// 解析链任一环缺失都按拒绝处理。
func (s *SubscriptionService) HasFeatureAccess(orgId, featureName string) bool {
	sub, err := s.subRepo.GetByOrgId(orgId)
	if err != nil {
		return false
	}

	if !subscriptionUsable(sub, time.Now()) {
		return false
	}

	plan, err := s.planRepo.GetByPlanId(sub.PlanId)
	if err != nil {
		return false
	}

	switch featureName {
	case FeatureCustomBranding:
		return plan.CustomBranding
	case FeaturePrioritySupport:
		return plan.PrioritySupport
	case FeatureApiAccess:
		return plan.ApiAccess
	case FeatureAdvancedAnalytics:
		return plan.AdvancedAnalytics
	case FeatureWhiteLabel:
		return plan.WhiteLabel
	default:
		return false
	}
}

// IsWithinQuota 配额检查，严格小于；nil 上限视为不限
func (s *SubscriptionService) IsWithinQuota(orgId, quotaType string, currentUsage int64) bool {
	sub, err := s.subRepo.GetByOrgId(orgId)
	if err != nil {
		return false
	}

	if !subscriptionUsable(sub, time.Now()) {
		return false
	}

	plan, err := s.planRepo.GetByPlanId(sub.PlanId)
	if err != nil {
		return false
	}

	switch quotaType {
	case QuotaUsers:
		if plan.MaxUsers == nil {
			return true
		}
		return currentUsage < int64(*plan.MaxUsers)
	case QuotaAds:
		if plan.MaxAds == nil {
			return true
		}
		return currentUsage < int64(*plan.MaxAds)
	case QuotaStorageMb:
		if plan.MaxStorageMb == nil {
			return true
		}
		return currentUsage < *plan.MaxStorageMb
	default:
		return false
	}
}

// MaxApiCallsPerHour 为准入网关解析小时级限流上限
// 链路缺失返回 0，由网关退回默认值
func (s *SubscriptionService) MaxApiCallsPerHour(_ context.Context, orgId string) int {
	sub, err := s.subRepo.GetByOrgId(orgId)
	if err != nil {
		return 0
	}
	plan, err := s.planRepo.GetByPlanId(sub.PlanId)
	if err != nil {
		return 0
	}
	if plan.MaxApiCallsPerHour == nil {
		return 0
	}
	return *plan.MaxApiCallsPerHour
}

// subscriptionUsable 判定订阅此刻是否可用
// PENDING_CANCELLATION 的订阅在当前周期结束前仍然可用
func subscriptionUsable(sub *model.Subscription, now time.Time) bool {
	switch sub.Status {
	case model.SubStatusActive, model.SubStatusTrialing:
		return true
	case model.SubStatusPendingCancellation:
		return now.Before(sub.CurrentPeriodEnd)
	default:
		return false
	}
}

// calculatePeriodEnd 计费周期按日历推进，月付 +1 个月，年付 +1 年
func calculatePeriodEnd(start time.Time, interval string) time.Time {
	if interval == model.BillingIntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func planAmount(plan *model.SubscriptionPlan, interval string) float64 {
	if interval == model.BillingIntervalYearly {
		return plan.PriceYearly
	}
	return plan.PriceMonthly
}
