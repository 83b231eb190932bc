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

package model

import "time"

// UsageMetricType 用量指标类型
const (
	MetricApiCalls          = "API_CALLS"
	MetricStorageUsed       = "STORAGE_USED"
	MetricAdsCreated        = "ADS_CREATED"
	MetricRequestsSent      = "REQUESTS_SENT"
	MetricMessagesSent      = "MESSAGES_SENT"
	MetricUsersInvited      = "USERS_INVITED"
	MetricInvoicesGenerated = "INVOICES_GENERATED"
	MetricPaymentsProcessed = "PAYMENTS_PROCESSED"
	MetricFileUploads       = "FILE_UPLOADS"
	MetricActiveUsers       = "ACTIVE_USERS"
	MetricChatSessions      = "CHAT_SESSIONS"
)

// AllMetricTypes 全部用量指标，汇总查询用
var AllMetricTypes = []string{
	MetricApiCalls,
	MetricStorageUsed,
	MetricAdsCreated,
	MetricRequestsSent,
	MetricMessagesSent,
	MetricUsersInvited,
	MetricInvoicesGenerated,
	MetricPaymentsProcessed,
	MetricFileUploads,
	MetricActiveUsers,
	MetricChatSessions,
}

// UsageTracking 用量事件表
// 只追加，事件一经写入不再修改或删除；修正通过追加新事件表达。
type UsageTracking struct {
	BaseModel
	EventId    string `gorm:"column:event_id;uniqueIndex" json:"eventId"` // 事件唯一标识
	OrgId      string `gorm:"column:org_id;index:idx_org_metric" json:"orgId"`
	UserId     string `gorm:"column:user_id" json:"userId"` // 可选，触发用量的用户
	MetricType string `gorm:"column:metric_type;index:idx_org_metric" json:"metricType"`
	Value      int64  `gorm:"column:value" json:"value"` // 用量数值

	RecordedAt  time.Time  `gorm:"column:recorded_at;index" json:"recordedAt"` // 事件时间戳
	PeriodStart *time.Time `gorm:"column:period_start" json:"periodStart"`     // 可选的显式统计区间
	PeriodEnd   *time.Time `gorm:"column:period_end" json:"periodEnd"`
}

func (UsageTracking) TableName() string {
	return "t_usage_tracking"
}
