package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCounterStore_Incr(t *testing.T) {
	store := NewMemoryCounterStore(time.Hour)

	count, _, err := store.Incr(context.Background(), "org-1:2025083012")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, err = store.Incr(context.Background(), "org-1:2025083012")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 不同 key 互不影响
	count, _, err = store.Incr(context.Background(), "org-2:2025083012")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryCounterStore_WindowReset(t *testing.T) {
	store := NewMemoryCounterStore(10 * time.Millisecond)

	count, first, err := store.Incr(context.Background(), "org-1:bucket")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(20 * time.Millisecond)

	// 窗口过期后重新从 1 开始
	count, second, err := store.Incr(context.Background(), "org-1:bucket")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, second.After(first))
}

func TestConf_Window(t *testing.T) {
	assert.Equal(t, time.Hour, Conf{}.Window())
	assert.Equal(t, 30*time.Minute, Conf{WindowMinutes: 30}.Window())
}

func TestMemoryCounterStore_EvictsExpiredBuckets(t *testing.T) {
	store := NewMemoryCounterStore(10 * time.Millisecond)

	// 翻桶后旧 key 不会再被访问，扫描要把它们清掉
	store.Incr(context.Background(), "org-1:old-bucket")
	store.Incr(context.Background(), "org-2:old-bucket")

	time.Sleep(20 * time.Millisecond)
	store.Incr(context.Background(), "org-1:new-bucket")

	keys := 0
	store.entries.Range(func(_, _ interface{}) bool {
		keys++
		return true
	})
	assert.Equal(t, 1, keys)
}
