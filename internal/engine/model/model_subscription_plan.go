package model

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/12
 * @file: model_subscription_plan.go
 * @description: 订阅计划表模型
 */

// PlanTier 计划档位
const (
	PlanTierFree       = "FREE"
	PlanTierStarter    = "STARTER"
	PlanTierPro        = "PRO"
	PlanTierEnterprise = "ENTERPRISE"
)

// SubscriptionPlan 订阅计划表，配额上限与权益开关的来源
type SubscriptionPlan struct {
	BaseModel
	PlanId       string  `gorm:"column:plan_id;uniqueIndex" json:"planId"` // 计划唯一标识
	Name         string  `gorm:"column:name" json:"name"`                  // 计划名称
	DisplayName  string  `gorm:"column:display_name" json:"displayName"`   // 计划显示名称
	Tier         string  `gorm:"column:tier" json:"tier"`                  // 档位
	Description  string  `gorm:"column:description" json:"description"`    // 计划描述
	PriceMonthly float64 `gorm:"column:price_monthly" json:"priceMonthly"` // 月付价格
	PriceYearly  float64 `gorm:"column:price_yearly" json:"priceYearly"`   // 年付价格

	// 配额上限，null 表示不限
	MaxUsers           *int   `gorm:"column:max_users" json:"maxUsers"`
	MaxAds             *int   `gorm:"column:max_ads" json:"maxAds"`
	MaxStorageMb       *int64 `gorm:"column:max_storage_mb" json:"maxStorageMb"`
	MaxApiCallsPerHour *int   `gorm:"column:max_api_calls_per_hour" json:"maxApiCallsPerHour"`

	// 权益开关
	CustomBranding    bool `gorm:"column:custom_branding;default:false" json:"customBranding"`
	PrioritySupport   bool `gorm:"column:priority_support;default:false" json:"prioritySupport"`
	ApiAccess         bool `gorm:"column:api_access;default:false" json:"apiAccess"`
	AdvancedAnalytics bool `gorm:"column:advanced_analytics;default:false" json:"advancedAnalytics"`
	WhiteLabel        bool `gorm:"column:white_label;default:false" json:"whiteLabel"`

	IsActive  bool `gorm:"column:is_active;default:true" json:"isActive"`
	TrialDays int  `gorm:"column:trial_days;default:14" json:"trialDays"` // 试用天数
}

func (SubscriptionPlan) TableName() string {
	return "t_subscription_plan"
}
