package model

import "time"

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/12
 * @file: model_subscription.go
 * @description: 订阅表模型
 */

// SubscriptionStatus 订阅状态
const (
	SubStatusTrialing            = "TRIALING"
	SubStatusActive              = "ACTIVE"
	SubStatusPastDue             = "PAST_DUE"
	SubStatusCanceled            = "CANCELED"
	SubStatusPendingCancellation = "PENDING_CANCELLATION"
	SubStatusUnpaid              = "UNPAID"
	SubStatusIncomplete          = "INCOMPLETE"
	SubStatusIncompleteExpired   = "INCOMPLETE_EXPIRED"
	SubStatusPaused              = "PAUSED"
)

// BillingInterval 计费周期
const (
	BillingIntervalMonthly = "MONTHLY"
	BillingIntervalYearly  = "YEARLY"
)

// Subscription 订阅表，每个组织同一时刻至多一条 ACTIVE/TRIALING 订阅
type Subscription struct {
	BaseModel
	SubId           string `gorm:"column:sub_id;uniqueIndex" json:"subId"` // 订阅唯一标识
	OrgId           string `gorm:"column:org_id;index" json:"orgId"`       // 所属组织
	PlanId          string `gorm:"column:plan_id" json:"planId"`           // 引用的计划
	Status          string `gorm:"column:status" json:"status"`            // 状态机状态
	BillingInterval string `gorm:"column:billing_interval" json:"billingInterval"`

	CurrentPeriodStart time.Time  `gorm:"column:current_period_start" json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `gorm:"column:current_period_end" json:"currentPeriodEnd"`
	TrialStart         *time.Time `gorm:"column:trial_start" json:"trialStart"`
	TrialEnd           *time.Time `gorm:"column:trial_end" json:"trialEnd"`

	CancelAtPeriodEnd bool       `gorm:"column:cancel_at_period_end;default:false" json:"cancelAtPeriodEnd"`
	CancelAt          *time.Time `gorm:"column:cancel_at" json:"cancelAt"`     // 计划内取消生效时间
	CanceledAt        *time.Time `gorm:"column:canceled_at" json:"canceledAt"` // 实际取消时间

	Amount float64 `gorm:"column:amount" json:"amount"` // 当前周期应付金额
}

func (Subscription) TableName() string {
	return "t_subscription"
}

// IsActive 订阅是否处于可用状态
func (s *Subscription) IsActive() bool {
	return s.Status == SubStatusActive || s.Status == SubStatusTrialing
}

// IsTrial 是否处于试用期
func (s *Subscription) IsTrial() bool {
	return s.Status == SubStatusTrialing
}
