package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

// CacheManager holds all application caches
type CacheManager struct {
	// Role lookups (e.g. every caretaker), keyed per credential and role
	Directory *UnifiedCache[[]models.UserProfile]
}

// NewCacheManager creates a cache manager; directoryTTL bounds how stale a role lookup may be.
func NewCacheManager(directoryTTL time.Duration, logger *zap.Logger) *CacheManager {
	if directoryTTL <= 0 {
		directoryTTL = time.Minute
	}
	return &CacheManager{
		Directory: NewUnifiedCache[[]models.UserProfile](directoryTTL, "directory", logger),
	}
}

// DirectoryKey builds the key for one credential's lookup of one role.
func DirectoryKey(token string, role models.UserType) (string, error) {
	return NewCacheKeyBuilder().AddCredential(token).Add("role", role).Build()
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"directory": cm.Directory.GetMetrics(),
	}
}

// ClearAll clears all caches
func (cm *CacheManager) ClearAll() {
	cm.Directory.Clear()
}
