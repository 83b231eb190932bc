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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/pkg/id"
	"github.com/tenantry/tenantry/pkg/log"
	"gorm.io/gorm"
)

type OrganizationService struct {
	orgRepo    repo.IOrganizationRepository
	memberRepo repo.IOrganizationMemberRepository
}

func NewOrganizationService(
	orgRepo repo.IOrganizationRepository,
	memberRepo repo.IOrganizationMemberRepository,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 由名称派生 slug，派生后不可变
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreateOrganization 创建组织并原子地写入 OWNER 成员
func (s *OrganizationService) CreateOrganization(org *model.Organization, ownerUserId string) (*model.Organization, error) {
	if org.Name == "" || ownerUserId == "" {
		return nil, fmt.Errorf("%w: name and owner are required", ErrInvalidArgument)
	}

	if org.Slug == "" {
		org.Slug = Slugify(org.Name)
	}

	// 校验 slug 唯一
	exists, err := s.orgRepo.ExistsBySlug(org.Slug)
	if err != nil {
		log.Errorw("check slug failed", "slug", org.Slug, "error", err)
		return nil, fmt.Errorf("check slug failed: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: slug %q already exists", ErrConflict, org.Slug)
	}

	org.OrgId = id.GetUUID()
	org.IsActive = true

	owner := &model.OrganizationMember{
		UserId:   ownerUserId,
		Role:     model.OrgRoleOwner,
		IsActive: true,
	}

	// 组织与 OWNER 成员同事务落库，不存在没有所有者的组织
	if err := s.orgRepo.CreateWithOwner(org, owner); err != nil {
		log.Errorw("create organization failed", "name", org.Name, "error", err)
		return nil, fmt.Errorf("create organization failed: %w", err)
	}

	log.Infow("success create organization", "orgId", org.OrgId, "slug", org.Slug)
	return org, nil
}

// GetOrganization 根据组织ID查询
func (s *OrganizationService) GetOrganization(orgId string) (*model.Organization, error) {
	org, err := s.orgRepo.GetByOrgId(orgId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization %s", ErrNotFound, orgId)
		}
		return nil, fmt.Errorf("get organization failed: %w", err)
	}
	return org, nil
}

// GetOrganizationBySlug 根据 slug 查询
func (s *OrganizationService) GetOrganizationBySlug(slug string) (*model.Organization, error) {
	org, err := s.orgRepo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization slug %s", ErrNotFound, slug)
		}
		return nil, fmt.Errorf("get organization failed: %w", err)
	}
	return org, nil
}

// ListOrganizations 分页查询组织
func (s *OrganizationService) ListOrganizations(pageNum, pageSize int) ([]*model.Organization, int64, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orgRepo.ListOrganizations((pageNum-1)*pageSize, pageSize)
}

// orgUpdatableColumns 组织补丁白名单，配额与状态列不接受外部写入
var orgUpdatableColumns = map[string]struct{}{
	"name":        {},
	"description": {},
	"logo":        {},
	"website":     {},
	"settings":    {},
}

// UpdateOrganization 更新组织，仅白名单列生效
func (s *OrganizationService) UpdateOrganization(orgId string, updates map[string]interface{}) error {
	if _, err := s.GetOrganization(orgId); err != nil {
		return err
	}
	filtered := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		if _, ok := orgUpdatableColumns[k]; ok {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.orgRepo.UpdateOrganization(orgId, filtered)
}

// DeleteOrganization 软删除，置 is_active=false，成员关系保留
func (s *OrganizationService) DeleteOrganization(orgId string) error {
	if _, err := s.GetOrganization(orgId); err != nil {
		return err
	}
	return s.orgRepo.SoftDelete(orgId)
}

// AddMember 加入成员，受配额约束
func (s *OrganizationService) AddMember(orgId, userId, role string) (*model.OrganizationMember, error) {
	if _, err := s.GetOrganization(orgId); err != nil {
		return nil, err
	}

	exists, err := s.memberRepo.ExistsMember(orgId, userId)
	if err != nil {
		return nil, fmt.Errorf("check member failed: %w", err)
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	ok, err := s.CanAddUser(orgId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: organization has reached maximum user limit", ErrQuotaExceeded)
	}

	member := &model.OrganizationMember{
		OrgId:    orgId,
		UserId:   userId,
		Role:     role,
		IsActive: true,
	}
	if err := s.memberRepo.CreateMember(member); err != nil {
		log.Errorw("add member failed", "orgId", orgId, "userId", userId, "error", err)
		return nil, fmt.Errorf("add member failed: %w", err)
	}
	return member, nil
}

// RemoveMember 移除成员，最后一个 OWNER 不可移除
func (s *OrganizationService) RemoveMember(orgId, userId string) error {
	member, err := s.memberRepo.GetMember(orgId, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %s", ErrNotFound, userId)
		}
		return fmt.Errorf("get member failed: %w", err)
	}

	if member.Role == model.OrgRoleOwner {
		owners, err := s.memberRepo.CountActiveOwners(orgId)
		if err != nil {
			return fmt.Errorf("count owners failed: %w", err)
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	return s.memberRepo.DeleteMember(orgId, userId)
}

// UpdateMemberRole 更新成员角色，所有权不可因降级而落空
func (s *OrganizationService) UpdateMemberRole(orgId, userId, role string) error {
	member, err := s.memberRepo.GetMember(orgId, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %s", ErrNotFound, userId)
		}
		return fmt.Errorf("get member failed: %w", err)
	}

	// 降级前先确认还有其他 OWNER
	if member.Role == model.OrgRoleOwner && role != model.OrgRoleOwner {
		owners, err := s.memberRepo.CountActiveOwners(orgId)
		if err != nil {
			return fmt.Errorf("count owners failed: %w", err)
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	return s.memberRepo.UpdateRole(orgId, userId, role)
}

// DeactivateMember 停用成员，不参与配额统计
func (s *OrganizationService) DeactivateMember(orgId, userId string) error {
	member, err := s.memberRepo.GetMember(orgId, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %s", ErrNotFound, userId)
		}
		return fmt.Errorf("get member failed: %w", err)
	}

	if member.Role == model.OrgRoleOwner {
		owners, err := s.memberRepo.CountActiveOwners(orgId)
		if err != nil {
			return fmt.Errorf("count owners failed: %w", err)
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	return s.memberRepo.SetActive(orgId, userId, false)
}

// ActivateMember 重新启用成员
func (s *OrganizationService) ActivateMember(orgId, userId string) error {
	if _, err := s.memberRepo.GetMember(orgId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %s", ErrNotFound, userId)
		}
		return fmt.Errorf("get member failed: %w", err)
	}
	return s.memberRepo.SetActive(orgId, userId, true)
}

// GetMembers 查询组织全部成员
func (s *OrganizationService) GetMembers(orgId string) ([]*model.OrganizationMember, error) {
	return s.memberRepo.ListByOrgId(orgId)
}

// IsMember (org, user) 是否存在
func (s *OrganizationService) IsMember(orgId, userId string) (bool, error) {
	return s.memberRepo.ExistsMember(orgId, userId)
}

// HasRole 用户在组织内是否具有指定角色
func (s *OrganizationService) HasRole(orgId, userId, role string) (bool, error) {
	member, err := s.memberRepo.GetMember(orgId, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.Role == role, nil
}

// CanAddUser 当前 active 成员数是否仍在配额之内，nil 配额视为不限
func (s *OrganizationService) CanAddUser(orgId string) (bool, error) {
	org, err := s.GetOrganization(orgId)
	if err != nil {
		return false, err
	}
	if org.MaxUsers == nil {
		return true, nil
	}
	count, err := s.memberRepo.CountActive(orgId)
	if err != nil {
		return false, fmt.Errorf("count members failed: %w", err)
	}
	return count < int64(*org.MaxUsers), nil
}

// GetCurrentMemberCount 当前 active 成员数
func (s *OrganizationService) GetCurrentMemberCount(orgId string) (int64, error) {
	return s.memberRepo.CountActive(orgId)
}

// CanCreateAd 广告数是否仍在组织配额之内，nil 配额视为不限
// 广告计数来自用量表，由调用方传入当月 ADS_CREATED 读数
func (s *OrganizationService) CanCreateAd(orgId string, currentAds int64) (bool, error) {
	org, err := s.GetOrganization(orgId)
	if err != nil {
		return false, err
	}
	if org.MaxAds == nil {
		return true, nil
	}
	return currentAds < int64(*org.MaxAds), nil
}
