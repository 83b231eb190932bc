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

package model

import "time"

// OrganizationMember 组织成员表
type OrganizationMember struct {
	BaseModel
	OrgId    string    `gorm:"column:org_id;uniqueIndex:uk_org_user" json:"orgId"`   // 组织ID
	UserId   string    `gorm:"column:user_id;uniqueIndex:uk_org_user" json:"userId"` // 用户ID
	Role     string    `gorm:"column:role" json:"role"`                              // 角色
	IsActive bool      `gorm:"column:is_active;default:true" json:"isActive"`        // 配额只统计 active 成员
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime" json:"joinedAt"`      // 加入时间
}

func (OrganizationMember) TableName() string {
	return "t_organization_member"
}

// OrganizationMemberRole 组织成员角色
const (
	OrgRoleOwner  = "OWNER"  // 所有者(最高权限)，组织任何时刻至少保留一个
	OrgRoleAdmin  = "ADMIN"  // 管理员(管理组织、成员)
	OrgRoleMember = "MEMBER" // 普通成员
)
