package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

func TestUnifiedCache_SetGet(t *testing.T) {
	c := NewUnifiedCache[[]string](time.Minute, "test", nil)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []string{"a", "b"})
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, c.Size())

	m := c.GetMetrics()
	assert.Equal(t, CacheMetrics{Hits: 1, Misses: 1, Sets: 1}, m)
}

func TestUnifiedCache_Expiry(t *testing.T) {
	c := NewUnifiedCache[int](20*time.Millisecond, "short", nil)
	c.Set("k", 7)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestUnifiedCache_DeleteAndClear(t *testing.T) {
	c := NewUnifiedCache[int](time.Minute, "test", nil)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestDirectoryKey(t *testing.T) {
	k1, err := DirectoryKey("token-a", models.UserTypeCaretaker)
	require.NoError(t, err)
	k2, err := DirectoryKey("token-a", models.UserTypeCaretaker)
	require.NoError(t, err)
	k3, err := DirectoryKey("token-b", models.UserTypeCaretaker)
	require.NoError(t, err)
	k4, err := DirectoryKey("token-a", models.UserTypeDoctor)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.NotContains(t, k1, "token-a")
}

func TestCacheManager(t *testing.T) {
	cm := NewCacheManager(0, nil)
	cm.Directory.Set("k", []models.UserProfile{{ID: "1", UserType: models.UserTypeCaretaker}})

	metrics := cm.GetAllMetrics()
	assert.Equal(t, int64(1), metrics["directory"].Sets)

	cm.ClearAll()
	assert.Equal(t, 0, cm.Directory.Size())
}
