package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/13
 * @file: repo_feature_flag.go
 * @description: 功能开关仓储
 */

type IFeatureFlagRepository interface {
	CreateFlag(f *model.FeatureFlag) error
	GetByFlagKey(flagKey string) (*model.FeatureFlag, error)
	ListFlags() ([]*model.FeatureFlag, error)
	UpdateFlag(flagKey string, updates map[string]interface{}) error
}

type FeatureFlagRepo struct {
	database.IDatabase
}

func NewFeatureFlagRepo(db database.IDatabase) IFeatureFlagRepository {
	return &FeatureFlagRepo{IDatabase: db}
}

// CreateFlag 创建功能开关
func (r *FeatureFlagRepo) CreateFlag(f *model.FeatureFlag) error {
	return r.Database().Create(f).Error
}

// GetByFlagKey 根据 key 查询开关
func (r *FeatureFlagRepo) GetByFlagKey(flagKey string) (*model.FeatureFlag, error) {
	var f model.FeatureFlag
	err := r.Database().Where("flag_key = ?", flagKey).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFlags 查询全部开关
func (r *FeatureFlagRepo) ListFlags() ([]*model.FeatureFlag, error) {
	var flags []*model.FeatureFlag
	err := r.Database().Order("flag_key ASC").Find(&flags).Error
	return flags, err
}

// UpdateFlag 更新开关
func (r *FeatureFlagRepo) UpdateFlag(flagKey string, updates map[string]interface{}) error {
	return r.Database().Model(&model.FeatureFlag{}).
		Where("flag_key = ?", flagKey).
		Updates(updates).Error
}
