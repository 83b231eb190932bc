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

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Conf holds rate limiter configuration.
type Conf struct {
	Store         string `mapstructure:"store"`         // memory 或 redis
	WindowMinutes int    `mapstructure:"windowMinutes"` // 窗口大小（分钟）
	DefaultLimit  int    `mapstructure:"defaultLimit"`  // 订阅链缺失时的默认上限
}

// SetDefaults 返回默认配置
func SetDefaults() Conf {
	return Conf{
		Store:         "memory",
		WindowMinutes: 60,
		DefaultLimit:  1000,
	}
}

// Window returns the configured window as a duration.
func (c Conf) Window() time.Duration {
	if c.WindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.WindowMinutes) * time.Minute
}

// CounterStore counts requests per key within a fixed window.
// The admission gate only depends on this interface, so the in-process map
// can be swapped for a shared store without touching the decision logic.
type CounterStore interface {
	// Incr increments the counter for key and returns the new count together
	// with the start of the key's current window. A key whose window has
	// elapsed restarts at count 1.
	Incr(ctx context.Context, key string) (count int64, windowStart time.Time, err error)
}

type memoryEntry struct {
	count       int64
	windowStart time.Time
}

// MemoryCounterStore keeps counters in a process-local map.
// Counters are lost on restart and are per-instance; with multiple instances
// the effective ceiling multiplies by the instance count.
type MemoryCounterStore struct {
	window  time.Duration
	entries sync.Map // key -> *memoryEntry

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewMemoryCounterStore creates an in-process counter store.
func NewMemoryCounterStore(window time.Duration) *MemoryCounterStore {
	return &MemoryCounterStore{window: window, lastSweep: time.Now()}
}

// Incr increments the counter for key.
// Entry creation is concurrency-safe via the map; the increment on an
// existing entry is not further synchronized, so concurrent callers can lose
// increments. Acceptable for a soft ceiling.
func (m *MemoryCounterStore) Incr(_ context.Context, key string) (int64, time.Time, error) {
	now := time.Now()
	actual, _ := m.entries.LoadOrStore(key, &memoryEntry{count: 0, windowStart: now})
	entry := actual.(*memoryEntry)

	if now.Sub(entry.windowStart) >= m.window {
		entry.count = 1
		entry.windowStart = now
	} else {
		entry.count++
	}

	m.sweep(now)

	return entry.count, entry.windowStart, nil
}

// sweep 清理过期窗口的计数器
// key 带小时桶，翻桶后旧 key 不会再被访问，不清理的话 map 会随租户数×小时数增长。
// 每个窗口最多跑一次全量扫描。
func (m *MemoryCounterStore) sweep(now time.Time) {
	m.sweepMu.Lock()
	if now.Sub(m.lastSweep) < m.window {
		m.sweepMu.Unlock()
		return
	}
	m.lastSweep = now
	m.sweepMu.Unlock()

	m.entries.Range(func(key, value interface{}) bool {
		if now.Sub(value.(*memoryEntry).windowStart) >= m.window {
			m.entries.Delete(key)
		}
		return true
	})
}
