package repo

import (
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/12
 * @file: repo_subscription_plan.go
 * @description: 订阅计划仓储
 */

type ISubscriptionPlanRepository interface {
	CreatePlan(p *model.SubscriptionPlan) error
	GetByPlanId(planId string) (*model.SubscriptionPlan, error)
	ListActivePlans() ([]*model.SubscriptionPlan, error)
	UpdatePlan(planId string, updates map[string]interface{}) error
}

type SubscriptionPlanRepo struct {
	database.IDatabase
}

func NewSubscriptionPlanRepo(db database.IDatabase) ISubscriptionPlanRepository {
	return &SubscriptionPlanRepo{IDatabase: db}
}

// CreatePlan 创建订阅计划
func (r *SubscriptionPlanRepo) CreatePlan(p *model.SubscriptionPlan) error {
	return r.Database().Create(p).Error
}

// GetByPlanId 根据计划ID查询
func (r *SubscriptionPlanRepo) GetByPlanId(planId string) (*model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	err := r.Database().Where("plan_id = ?", planId).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActivePlans 查询全部上架计划
func (r *SubscriptionPlanRepo) ListActivePlans() ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.Database().Where("is_active = ?", true).
		Order("price_monthly ASC").Find(&plans).Error
	return plans, err
}

// UpdatePlan 更新计划
func (r *SubscriptionPlanRepo) UpdatePlan(planId string, updates map[string]interface{}) error {
	return r.Database().Model(&model.SubscriptionPlan{}).
		Where("plan_id = ?", planId).
		Updates(updates).Error
}
