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
	"time"

	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
)

type IUsageTrackingRepository interface {
	CreateEvent(e *model.UsageTracking) error
	SumInPeriod(orgId, metricType string, start, end time.Time) (int64, error)
	ListByOrgId(orgId string, offset, limit int) ([]*model.UsageTracking, int64, error)
}

type UsageTrackingRepo struct {
	database.IDatabase
}

func NewUsageTrackingRepo(db database.IDatabase) IUsageTrackingRepository {
	return &UsageTrackingRepo{IDatabase: db}
}

// CreateEvent 追加一条用量事件，事件不可修改
func (r *UsageTrackingRepo) CreateEvent(e *model.UsageTracking) error {
	return r.Database().Create(e).Error
}

// SumInPeriod 汇总指定窗口内某指标的用量
func (r *UsageTrackingRepo) SumInPeriod(orgId, metricType string, start, end time.Time) (int64, error) {
	var total int64
	err := r.Database().Model(&model.UsageTracking{}).
		Select("COALESCE(SUM(value), 0)").
		Where("org_id = ? AND metric_type = ? AND recorded_at >= ? AND recorded_at <= ?",
			orgId, metricType, start, end).
		Scan(&total).Error
	return total, err
}

// ListByOrgId 分页查询组织的用量事件
func (r *UsageTrackingRepo) ListByOrgId(orgId string, offset, limit int) ([]*model.UsageTracking, int64, error) {
	var events []*model.UsageTracking
	var total int64

	db := r.Database().Model(&model.UsageTracking{}).Where("org_id = ?", orgId)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("recorded_at DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
