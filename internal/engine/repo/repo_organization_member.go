package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/11
 * @file: repo_organization_member.go
 * @description: 组织成员仓储
 */

type IOrganizationMemberRepository interface {
	CreateMember(m *model.OrganizationMember) error
	GetMember(orgId, userId string) (*model.OrganizationMember, error)
	ExistsMember(orgId, userId string) (bool, error)
	DeleteMember(orgId, userId string) error
	UpdateRole(orgId, userId, role string) error
	SetActive(orgId, userId string, active bool) error
	ListByOrgId(orgId string) ([]*model.OrganizationMember, error)
	CountActive(orgId string) (int64, error)
	CountActiveOwners(orgId string) (int64, error)
}

type OrganizationMemberRepo struct {
	database.IDatabase
}

func NewOrganizationMemberRepo(db database.IDatabase) IOrganizationMemberRepository {
	return &OrganizationMemberRepo{IDatabase: db}
}

// CreateMember 新增成员
func (r *OrganizationMemberRepo) CreateMember(m *model.OrganizationMember) error {
	return r.Database().Create(m).Error
}

// GetMember 查询组织成员
func (r *OrganizationMemberRepo) GetMember(orgId, userId string) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := r.Database().Where("org_id = ? AND user_id = ?", orgId, userId).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ExistsMember (org, user) 是否已存在
func (r *OrganizationMemberRepo) ExistsMember(orgId, userId string) (bool, error) {
	var count int64
	err := r.Database().Model(&model.OrganizationMember{}).
		Where("org_id = ? AND user_id = ?", orgId, userId).Count(&count).Error
	return count > 0, err
}

// DeleteMember 移除成员
func (r *OrganizationMemberRepo) DeleteMember(orgId, userId string) error {
	return r.Database().Where("org_id = ? AND user_id = ?", orgId, userId).
		Delete(&model.OrganizationMember{}).Error
}

// UpdateRole 更新成员角色
func (r *OrganizationMemberRepo) UpdateRole(orgId, userId, role string) error {
	return r.Database().Model(&model.OrganizationMember{}).
		Where("org_id = ? AND user_id = ?", orgId, userId).
		Update("role", role).Error
}

// SetActive 启用/停用成员
func (r *OrganizationMemberRepo) SetActive(orgId, userId string, active bool) error {
	return r.Database().Model(&model.OrganizationMember{}).
		Where("org_id = ? AND user_id = ?", orgId, userId).
		Update("is_active", active).Error
}

// ListByOrgId 查询组织全部成员
func (r *OrganizationMemberRepo) ListByOrgId(orgId string) ([]*model.OrganizationMember, error) {
	var members []*model.OrganizationMember
	err := r.Database().Where("org_id = ?", orgId).
		Order("joined_at ASC").Find(&members).Error
	return members, err
}

// CountActive 统计 active 成员数，配额检查只统计 active
func (r *OrganizationMemberRepo) CountActive(orgId string) (int64, error) {
	var count int64
	err := r.Database().Model(&model.OrganizationMember{}).
		Where("org_id = ? AND is_active = ?", orgId, true).Count(&count).Error
	return count, err
}

// CountActiveOwners 统计 active OWNER 数，用于最后所有者校验
func (r *OrganizationMemberRepo) CountActiveOwners(orgId string) (int64, error) {
	var count int64
	err := r.Database().Model(&model.OrganizationMember{}).
		Where("org_id = ? AND role = ? AND is_active = ?", orgId, model.OrgRoleOwner, true).
		Count(&count).Error
	return count, err
}
