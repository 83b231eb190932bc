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
	"math/rand"

	"github.com/bytedance/sonic"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/pkg/log"
	"gorm.io/gorm"
)

// FeatureFlagService 功能灰度
// 灰度判定是每次调用独立抽签，不对同一主体保持粘性；
// 同一主体反复调用可能得到不同结果，这是既定策略而非缺陷。
type FeatureFlagService struct {
	flagRepo repo.IFeatureFlagRepository

	// 可注入随机源，便于测试固定抽签结果
	intn func(n int) int
}

func NewFeatureFlagService(flagRepo repo.IFeatureFlagRepository) *FeatureFlagService {
	return &FeatureFlagService{
		flagRepo: flagRepo,
		intn:     rand.Intn,
	}
}

// CreateFlag 创建开关，默认关闭、灰度 0
func (s *FeatureFlagService) CreateFlag(flagKey, description string) (*model.FeatureFlag, error) {
	if flagKey == "" {
		return nil, fmt.Errorf("%w: flag key is required", ErrInvalidArgument)
	}

	flag := &model.FeatureFlag{
		FlagKey:           flagKey,
		Description:       description,
		IsEnabled:         false,
		RolloutPercentage: 0,
	}
	if err := s.flagRepo.CreateFlag(flag); err != nil {
		return nil, fmt.Errorf("create feature flag failed: %w", err)
	}
	return flag, nil
}

// GetFlag 根据 key 查询开关
func (s *FeatureFlagService) GetFlag(flagKey string) (*model.FeatureFlag, error) {
	flag, err := s.flagRepo.GetByFlagKey(flagKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: feature flag %s", ErrNotFound, flagKey)
		}
		return nil, fmt.Errorf("get feature flag failed: %w", err)
	}
	return flag, nil
}

// ListFlags 查询全部开关
func (s *FeatureFlagService) ListFlags() ([]*model.FeatureFlag, error) {
	return s.flagRepo.ListFlags()
}

// IsEnabled 开关打开且 [0,100) 均匀抽签落在灰度比例之内
func (s *FeatureFlagService) IsEnabled(flagKey string) bool {
	flag, err := s.flagRepo.GetByFlagKey(flagKey)
	if err != nil {
		return false
	}
	if !flag.IsEnabled {
		return false
	}
	return s.intn(100) < flag.RolloutPercentage
}

// IsEnabledForOrganization 组织维度判定
// 定向名单非空时要求组织命中名单，名单不绕过灰度抽签，只在其上收窄。
// 名单 JSON 损坏按未命中处理。
func (s *FeatureFlagService) IsEnabledForOrganization(flagKey, orgId string) bool {
	flag, err := s.flagRepo.GetByFlagKey(flagKey)
	if err != nil {
		return false
	}
	if !flag.IsEnabled {
		return false
	}

	if flag.TargetOrganizations != "" {
		var targets []string
		if err := sonic.UnmarshalString(flag.TargetOrganizations, &targets); err != nil {
			return false
		}
		if len(targets) > 0 {
			found := false
			for _, t := range targets {
				if t == orgId {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}

	return s.intn(100) < flag.RolloutPercentage
}

// IsEnabledForUser 用户维度判定
// 不做用户定向，等同一次全局抽签；同一用户多次调用结果可能不同
func (s *FeatureFlagService) IsEnabledForUser(flagKey, _ string) bool {
	return s.IsEnabled(flagKey)
}

// EnableFlag 打开开关；灰度仍为 0 时直接拉满到 100
func (s *FeatureFlagService) EnableFlag(flagKey string) error {
	flag, err := s.GetFlag(flagKey)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"is_enabled": true}
	if flag.RolloutPercentage == 0 {
		updates["rollout_percentage"] = 100
	}
	return s.flagRepo.UpdateFlag(flagKey, updates)
}

// DisableFlag 关闭开关，灰度比例保留
func (s *FeatureFlagService) DisableFlag(flagKey string) error {
	if _, err := s.GetFlag(flagKey); err != nil {
		return err
	}
	return s.flagRepo.UpdateFlag(flagKey, map[string]interface{}{"is_enabled": false})
}

// SetRolloutPercentage 灰度比例必须落在 [0,100]
func (s *FeatureFlagService) SetRolloutPercentage(flagKey string, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: rollout percentage %d out of range [0,100]", ErrInvalidArgument, percentage)
	}
	if _, err := s.GetFlag(flagKey); err != nil {
		return err
	}
	return s.flagRepo.UpdateFlag(flagKey, map[string]interface{}{"rollout_percentage": percentage})
}

// SetTargetOrganizations 设置定向组织名单
func (s *FeatureFlagService) SetTargetOrganizations(flagKey string, orgIds []string) error {
	if _, err := s.GetFlag(flagKey); err != nil {
		return err
	}

	targetsJson, err := sonic.MarshalString(orgIds)
	if err != nil {
		log.Errorw("serialize target organizations failed", "flagKey", flagKey, "error", err)
		return fmt.Errorf("%w: failed to serialize target organizations", ErrInvalidArgument)
	}
	return s.flagRepo.UpdateFlag(flagKey, map[string]interface{}{"target_organizations": targetsJson})
}
