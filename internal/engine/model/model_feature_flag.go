package model

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/13
 * @file: model_feature_flag.go
 * @description: 功能开关表模型
 */

// FeatureFlag 功能开关表
// 创建时默认关闭且灰度为 0，由管理员逐步放量或定向投放。
type FeatureFlag struct {
	BaseModel
	FlagKey           string `gorm:"column:flag_key;uniqueIndex" json:"flagKey"` // 唯一 key
	Description       string `gorm:"column:description" json:"description"`
	IsEnabled         bool   `gorm:"column:is_enabled;default:false" json:"isEnabled"`
	RolloutPercentage int    `gorm:"column:rollout_percentage;default:0" json:"rolloutPercentage"` // 0-100

	// JSON 数组，非空时在灰度之外额外要求组织命中名单
	TargetOrganizations string `gorm:"column:target_organizations;type:text" json:"targetOrganizations"`
}

func (FeatureFlag) TableName() string {
	return "t_feature_flag"
}
