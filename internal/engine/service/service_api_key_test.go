package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantry/tenantry/internal/engine/model"
	"gorm.io/gorm"
)

// fakeKeyRepo 内存凭据仓储
type fakeKeyRepo struct {
	keys map[string]*model.ApiKey // key: keyId
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: make(map[string]*model.ApiKey)}
}

func (f *fakeKeyRepo) CreateApiKey(k *model.ApiKey) error {
	f.keys[k.KeyId] = k
	return nil
}

func (f *fakeKeyRepo) GetByKeyId(keyId string) (*model.ApiKey, error) {
	k, ok := f.keys[keyId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return k, nil
}

func (f *fakeKeyRepo) GetByKeyHash(keyHash string) (*model.ApiKey, error) {
	for _, k := range f.keys {
		if k.KeyHash == keyHash {
			return k, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeKeyRepo) ListByOrgId(orgId string) ([]*model.ApiKey, error) {
	var out []*model.ApiKey
	for _, k := range f.keys {
		if k.OrgId == orgId {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) UpdateApiKey(keyId string, updates map[string]interface{}) error {
	k, ok := f.keys[keyId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["is_active"]; ok {
		k.IsActive = v.(bool)
	}
	if v, ok := updates["revoked_at"]; ok {
		t := v.(time.Time)
		k.RevokedAt = &t
	}
	if v, ok := updates["revoked_by"]; ok {
		k.RevokedBy = v.(string)
	}
	if v, ok := updates["last_used_at"]; ok {
		t := v.(time.Time)
		k.LastUsedAt = &t
	}
	if _, ok := updates["usage_count"]; ok {
		// gorm.Expr("usage_count + 1")
		k.UsageCount++
	}
	return nil
}

func newKeyService() (*ApiKeyService, *fakeKeyRepo, *fakeOrgRepo) {
	keyRepo := newFakeKeyRepo()
	orgRepo := newFakeOrgRepo()
	orgRepo.orgs["org-1"] = &model.Organization{OrgId: "org-1", Slug: "org-1", IsActive: true}
	return NewApiKeyService(keyRepo, orgRepo), keyRepo, orgRepo
}

func TestCreateApiKey_ThenValidate(t *testing.T) {
	svc, _, _ := newKeyService()

	apiKey, plaintext, err := svc.CreateApiKey("org-1", "u1", "ci key", []string{"ads:read"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plaintext, ApiKeyPrefix))
	assert.NotContains(t, apiKey.KeyHash, plaintext)

	// 创建后立即用明文校验成功
	got, err := svc.ValidateApiKey(context.Background(), plaintext)
	require.NoError(t, err)
	assert.Equal(t, apiKey.KeyId, got.KeyId)

	// 改动明文任一字符即校验失败
	mutated := []byte(plaintext)
	last := len(mutated) - 1
	if mutated[last] == 'A' {
		mutated[last] = 'B'
	} else {
		mutated[last] = 'A'
	}
	_, err = svc.ValidateApiKey(context.Background(), string(mutated))
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestValidateApiKey_BadPrefix(t *testing.T) {
	svc, _, _ := newKeyService()

	_, err := svc.ValidateApiKey(context.Background(), "sk_live_not_ours")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestValidateApiKey_Expired(t *testing.T) {
	svc, keyRepo, _ := newKeyService()

	past := time.Now().Add(-time.Hour)
	_, plaintext, err := svc.CreateApiKey("org-1", "u1", "expired", []string{"*"}, &past)
	require.NoError(t, err)

	_, err = svc.ValidateApiKey(context.Background(), plaintext)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	// 库里记录仍然存在
	assert.Len(t, keyRepo.keys, 1)
}

func TestRevokeApiKey(t *testing.T) {
	svc, keyRepo, _ := newKeyService()

	apiKey, plaintext, err := svc.CreateApiKey("org-1", "u1", "to revoke", []string{"*"}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeApiKey(apiKey.KeyId, "admin-1"))

	// 摘要未变，但校验失败
	got := keyRepo.keys[apiKey.KeyId]
	assert.Equal(t, apiKey.KeyHash, got.KeyHash)
	assert.NotNil(t, got.RevokedAt)
	assert.Equal(t, "admin-1", got.RevokedBy)

	_, err = svc.ValidateApiKey(context.Background(), plaintext)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestHasScope(t *testing.T) {
	svc, _, _ := newKeyService()

	key := &model.ApiKey{Scopes: `["ads:read","usage:read"]`}
	assert.True(t, svc.HasScope(key, "ads:read"))
	assert.False(t, svc.HasScope(key, "ads:write"))

	// 通配
	wildcard := &model.ApiKey{Scopes: `["*"]`}
	assert.True(t, svc.HasScope(wildcard, "anything:at-all"))

	// 损坏的 JSON 按不匹配处理
	corrupt := &model.ApiKey{Scopes: `["ads:read"`}
	assert.False(t, svc.HasScope(corrupt, "ads:read"))

	empty := &model.ApiKey{}
	assert.False(t, svc.HasScope(empty, "ads:read"))
}

func TestTrackApiKeyUsage(t *testing.T) {
	svc, keyRepo, _ := newKeyService()

	apiKey, _, err := svc.CreateApiKey("org-1", "u1", "tracked", []string{"*"}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.TrackApiKeyUsage(context.Background(), apiKey.KeyId))
	require.NoError(t, svc.TrackApiKeyUsage(context.Background(), apiKey.KeyId))

	got := keyRepo.keys[apiKey.KeyId]
	assert.Equal(t, int64(2), got.UsageCount)
	assert.NotNil(t, got.LastUsedAt)
}

func TestCreateApiKey_UnknownOrg(t *testing.T) {
	svc, _, _ := newKeyService()

	_, _, err := svc.CreateApiKey("missing", "u1", "k", []string{"*"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
