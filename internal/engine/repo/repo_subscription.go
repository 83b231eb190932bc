package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/12
 * @file: repo_subscription.go
 * @description: 订阅仓储
 */

type ISubscriptionRepository interface {
	CreateSubscription(s *model.Subscription) error
	GetBySubId(subId string) (*model.Subscription, error)
	GetByOrgId(orgId string) (*model.Subscription, error)
	GetActiveByOrgId(orgId string) (*model.Subscription, error)
	UpdateSubscription(subId string, updates map[string]interface{}) error
}

type SubscriptionRepo struct {
	database.IDatabase
}

func NewSubscriptionRepo(db database.IDatabase) ISubscriptionRepository {
	return &SubscriptionRepo{IDatabase: db}
}

// CreateSubscription 创建订阅
func (r *SubscriptionRepo) CreateSubscription(s *model.Subscription) error {
	return r.Database().Create(s).Error
}

// GetBySubId 根据订阅ID查询
func (r *SubscriptionRepo) GetBySubId(subId string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.Database().Where("sub_id = ?", subId).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByOrgId 查询组织最近一条订阅
func (r *SubscriptionRepo) GetByOrgId(orgId string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.Database().Where("org_id = ?", orgId).
		Order("created_at DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveByOrgId 查询组织处于 ACTIVE/TRIALING 的订阅
func (r *SubscriptionRepo) GetActiveByOrgId(orgId string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.Database().
		Where("org_id = ? AND status IN ?", orgId, []string{model.SubStatusActive, model.SubStatusTrialing}).
		Order("created_at DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSubscription 更新订阅
func (r *SubscriptionRepo) UpdateSubscription(subId string, updates map[string]interface{}) error {
	return r.Database().Model(&model.Subscription{}).
		Where("sub_id = ?", subId).
		Updates(updates).Error
}
