package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/13
 * @file: repo_api_key.go
 * @description: api key 仓储
 */

type IApiKeyRepository interface {
	CreateApiKey(k *model.ApiKey) error
	GetByKeyId(keyId string) (*model.ApiKey, error)
	GetByKeyHash(keyHash string) (*model.ApiKey, error)
	ListByOrgId(orgId string) ([]*model.ApiKey, error)
	UpdateApiKey(keyId string, updates map[string]interface{}) error
}

type ApiKeyRepo struct {
	database.IDatabase
}

func NewApiKeyRepo(db database.IDatabase) IApiKeyRepository {
	return &ApiKeyRepo{IDatabase: db}
}

// CreateApiKey 创建凭据记录，只落摘要
func (r *ApiKeyRepo) CreateApiKey(k *model.ApiKey) error {
	return r.Database().Create(k).Error
}

// GetByKeyId 根据凭据ID查询
func (r *ApiKeyRepo) GetByKeyId(keyId string) (*model.ApiKey, error) {
	var k model.ApiKey
	err := r.Database().Where("key_id = ?", keyId).First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// GetByKeyHash 根据摘要查询，凭据校验的唯一入口
func (r *ApiKeyRepo) GetByKeyHash(keyHash string) (*model.ApiKey, error) {
	var k model.ApiKey
	err := r.Database().Where("key_hash = ?", keyHash).First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ListByOrgId 查询组织全部凭据
func (r *ApiKeyRepo) ListByOrgId(orgId string) ([]*model.ApiKey, error) {
	var keys []*model.ApiKey
	err := r.Database().Where("org_id = ?", orgId).
		Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// UpdateApiKey 更新凭据
func (r *ApiKeyRepo) UpdateApiKey(keyId string, updates map[string]interface{}) error {
	return r.Database().Model(&model.ApiKey{}).
		Where("key_id = ?", keyId).
		Updates(updates).Error
}
