package model

import "time"

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/13
 * @file: model_api_key.go
 * @description: api key 表模型
 */

// ApiKey 长期编程凭据表
// 明文密钥只在创建时返回一次，库里只存一次性摘要。
type ApiKey struct {
	BaseModel
	KeyId     string `gorm:"column:key_id;uniqueIndex" json:"keyId"` // 凭据唯一标识
	OrgId     string `gorm:"column:org_id;index" json:"orgId"`       // 所属组织
	CreatedBy string `gorm:"column:created_by" json:"createdBy"`     // 创建人用户ID
	Name      string `gorm:"column:name" json:"name"`                // 显示名称
	KeyHash   string `gorm:"column:key_hash;uniqueIndex" json:"-"`   // SHA-256 摘要
	Prefix    string `gorm:"column:prefix" json:"prefix"`            // 密钥前缀
	Scopes    string `gorm:"column:scopes;type:text" json:"scopes"`  // JSON 数组，"*" 为全量
	IsActive  bool   `gorm:"column:is_active;default:true" json:"isActive"`

	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expiresAt"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"lastUsedAt"`
	UsageCount int64      `gorm:"column:usage_count;default:0" json:"usageCount"`

	RevokedAt *time.Time `gorm:"column:revoked_at" json:"revokedAt"` // 吊销不可逆
	RevokedBy string     `gorm:"column:revoked_by" json:"revokedBy"`
}

func (ApiKey) TableName() string {
	return "t_api_key"
}

// IsExpired 是否已过期
func (k *ApiKey) IsExpired() bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now())
}

// IsRevoked 是否已吊销
func (k *ApiKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// IsValid 有效 = 激活 且 未过期 且 未吊销
func (k *ApiKey) IsValid() bool {
	return k.IsActive && !k.IsExpired() && !k.IsRevoked()
}
