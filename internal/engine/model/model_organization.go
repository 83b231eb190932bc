package model

import (
	"time"

	"gorm.io/datatypes"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/11
 * @file: model_organization.go
 * @description: 组织（租户）表模型
 */

// Organization 组织表，租户即计费与隔离边界
type Organization struct {
	BaseModel
	OrgId       string         `gorm:"column:org_id;uniqueIndex" json:"orgId"`    // 组织唯一标识
	Name        string         `gorm:"column:name" json:"name"`                   // 组织名称
	Slug        string         `gorm:"column:slug;uniqueIndex" json:"slug"`       // 唯一 slug，由名称派生后不可变
	Description string         `gorm:"column:description" json:"description"`     // 组织描述
	Logo        string         `gorm:"column:logo" json:"logo"`                   // 组织Logo URL
	Website     string         `gorm:"column:website" json:"website"`             // 组织官网
	Settings    datatypes.JSON `gorm:"column:settings;type:json" json:"settings"` // 组织设置
	IsActive    bool           `gorm:"column:is_active;default:true" json:"isActive"`

	// 配额上限，null 表示不限
	MaxUsers     *int   `gorm:"column:max_users" json:"maxUsers"`
	MaxAds       *int   `gorm:"column:max_ads" json:"maxAds"`
	MaxStorageMb *int64 `gorm:"column:max_storage_mb" json:"maxStorageMb"`

	TrialEndsAt *time.Time `gorm:"column:trial_ends_at" json:"trialEndsAt"` // 试用截止时间
}

func (Organization) TableName() string {
	return "t_organization"
}
