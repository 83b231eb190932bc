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
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/internal/engine/repo"
	"github.com/tenantry/tenantry/pkg/id"
	"github.com/tenantry/tenantry/pkg/log"
	"gorm.io/gorm"
)

const (
	// ApiKeyPrefix 对外密钥的固定前缀
	ApiKeyPrefix = "tn_live_"

	apiKeyRandomBytes = 32
)

// Scope 授权范围，"*" 匹配任意 scope
const (
	ScopeAll              = "*"
	ScopeSubscriptionRead = "subscription:read"
	ScopeFeatureRead      = "feature:read"
	ScopeFlagRead         = "flag:read"
	ScopeUsageRead        = "usage:read"
	ScopeUsageWrite       = "usage:write"
)

type ApiKeyService struct {
	keyRepo repo.IApiKeyRepository
	orgRepo repo.IOrganizationRepository
}

func NewApiKeyService(keyRepo repo.IApiKeyRepository, orgRepo repo.IOrganizationRepository) *ApiKeyService {
	return &ApiKeyService{
		keyRepo: keyRepo,
		orgRepo: orgRepo,
	}
}

// CreateApiKey 签发凭据
// 明文只在返回值里出现一次，库中只落 SHA-256 摘要。
func (s *ApiKeyService) CreateApiKey(orgId, userId, name string, scopes []string, expiresAt *time.Time) (*model.ApiKey, string, error) {
	if _, err := s.orgRepo.GetByOrgId(orgId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: organization %s", ErrNotFound, orgId)
		}
		return nil, "", fmt.Errorf("get organization failed: %w", err)
	}

	keyString, err := generateSecureKey()
	if err != nil {
		return nil, "", fmt.Errorf("generate api key failed: %w", err)
	}

	scopesJson, err := sonic.MarshalString(scopes)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to serialize scopes", ErrInvalidArgument)
	}

	apiKey := &model.ApiKey{
		KeyId:     id.GetUUID(),
		OrgId:     orgId,
		CreatedBy: userId,
		Name:      name,
		KeyHash:   hashKey(keyString),
		Prefix:    ApiKeyPrefix,
		Scopes:    scopesJson,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}

	if err := s.keyRepo.CreateApiKey(apiKey); err != nil {
		log.Errorw("create api key failed", "orgId", orgId, "error", err)
		return nil, "", fmt.Errorf("create api key failed: %w", err)
	}

	log.Infow("success create api key", "keyId", apiKey.KeyId, "orgId", orgId)
	return apiKey, keyString, nil
}

// ValidateApiKey 校验凭据
// 前缀不符立即拒绝；摘要查不到、过期、吊销、停用统一返回 ErrInvalidCredential，
// 不区分具体原因，避免泄露哪一项校验失败。
func (s *ApiKeyService) ValidateApiKey(_ context.Context, keyString string) (*model.ApiKey, error) {
	if !strings.HasPrefix(keyString, ApiKeyPrefix) {
		return nil, fmt.Errorf("%w: invalid api key format", ErrInvalidCredential)
	}

	apiKey, err := s.keyRepo.GetByKeyHash(hashKey(keyString))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("lookup api key failed: %w", err)
	}

	if !apiKey.IsValid() {
		return nil, ErrInvalidCredential
	}

	return apiKey, nil
}

// HasScope 授权判定，"*" 匹配任意 scope
// 存储的 scopes JSON 损坏时按不匹配处理，不向上抛错
func (s *ApiKeyService) HasScope(apiKey *model.ApiKey, scope string) bool {
	if apiKey.Scopes == "" {
		return false
	}

	var scopes []string
	if err := sonic.UnmarshalString(apiKey.Scopes, &scopes); err != nil {
		return false
	}

	for _, sc := range scopes {
		if sc == scope || sc == ScopeAll {
			return true
		}
	}
	return false
}

// RevokeApiKey 吊销，单向操作，无法撤销
func (s *ApiKeyService) RevokeApiKey(keyId, revokedBy string) error {
	if _, err := s.keyRepo.GetByKeyId(keyId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: api key %s", ErrNotFound, keyId)
		}
		return fmt.Errorf("get api key failed: %w", err)
	}

	return s.keyRepo.UpdateApiKey(keyId, map[string]interface{}{
		"is_active":  false,
		"revoked_at": time.Now(),
		"revoked_by": revokedBy,
	})
}

// TrackApiKeyUsage 更新 lastUsedAt 并单调递增使用计数，与请求成败无关
func (s *ApiKeyService) TrackApiKeyUsage(_ context.Context, keyId string) error {
	return s.keyRepo.UpdateApiKey(keyId, map[string]interface{}{
		"last_used_at": time.Now(),
		"usage_count":  gorm.Expr("usage_count + 1"),
	})
}

// GetOrganizationApiKeys 查询组织全部凭据
func (s *ApiKeyService) GetOrganizationApiKeys(orgId string) ([]*model.ApiKey, error) {
	return s.keyRepo.ListByOrgId(orgId)
}

// generateSecureKey 32 字节加密随机数，base64url 无填充编码，加固定前缀
func generateSecureKey() (string, error) {
	randomBytes := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return ApiKeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// hashKey SHA-256 摘要，标准 base64 存储
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return base64.StdEncoding.EncodeToString(sum[:])
}
