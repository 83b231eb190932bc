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

package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
	"gorm.io/gorm"
)

type IOrganizationRepository interface {
	CreateWithOwner(org *model.Organization, owner *model.OrganizationMember) error
	GetByOrgId(orgId string) (*model.Organization, error)
	GetBySlug(slug string) (*model.Organization, error)
	ExistsBySlug(slug string) (bool, error)
	ListOrganizations(offset, limit int) ([]*model.Organization, int64, error)
	UpdateOrganization(orgId string, updates map[string]interface{}) error
	SoftDelete(orgId string) error
}

type OrganizationRepo struct {
	database.IDatabase
}

func NewOrganizationRepo(db database.IDatabase) IOrganizationRepository {
	return &OrganizationRepo{IDatabase: db}
}

// CreateWithOwner 创建组织并同事务写入 OWNER 成员，两者同生共死
func (r *OrganizationRepo) CreateWithOwner(org *model.Organization, owner *model.OrganizationMember) error {
	return r.Database().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		owner.OrgId = org.OrgId
		return tx.Create(owner).Error
	})
}

// GetByOrgId 根据组织ID获取组织
func (r *OrganizationRepo) GetByOrgId(orgId string) (*model.Organization, error) {
	var org model.Organization
	err := r.Database().Where("org_id = ?", orgId).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetBySlug 根据 slug 获取组织
func (r *OrganizationRepo) GetBySlug(slug string) (*model.Organization, error) {
	var org model.Organization
	err := r.Database().Where("slug = ?", slug).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ExistsBySlug slug 是否已被占用
func (r *OrganizationRepo) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.Database().Model(&model.Organization{}).
		Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// ListOrganizations 分页查询组织列表
func (r *OrganizationRepo) ListOrganizations(offset, limit int) ([]*model.Organization, int64, error) {
	var orgs []*model.Organization
	var total int64

	db := r.Database().Model(&model.Organization{}).Where("is_active = ?", true)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&orgs).Error; err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

// UpdateOrganization 更新组织
func (r *OrganizationRepo) UpdateOrganization(orgId string, updates map[string]interface{}) error {
	return r.Database().Model(&model.Organization{}).
		Where("org_id = ?", orgId).
		Updates(updates).Error
}

// SoftDelete 软删除，置 is_active = false，组织记录保留
func (r *OrganizationRepo) SoftDelete(orgId string) error {
	return r.Database().Model(&model.Organization{}).
		Where("org_id = ?", orgId).
		Update("is_active", false).Error
}
