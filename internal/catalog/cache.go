package catalog

import (
	"sync"
	"sync/atomic"
	"time"
)

// ==================== 模型目录缓存 ====================

// MemoryCache 供应商模型目录的内存缓存
// 键为供应商标识，值为其当前宣告的模型清单
type MemoryCache struct {
	mu          sync.RWMutex
	data        map[string]*CacheEntry
	config      *CacheConfig
	hitCount    atomic.Int64
	missCount   atomic.Int64
	stopCleanup chan struct{}
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	cache := &MemoryCache{
		data:        make(map[string]*CacheEntry),
		config:      config,
		stopCleanup: make(chan struct{}),
	}

	// 启动定期清理
	go cache.startCleanup()

	return cache
}

// Get 获取供应商的模型清单
func (c *MemoryCache) Get(providerID string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[providerID]
	if !exists {
		c.missCount.Add(1)
		return nil, false
	}

	// 过期条目按未命中处理，实体留给定期清理回收
	if time.Now().After(entry.ExpiresAt) {
		c.missCount.Add(1)
		return nil, false
	}

	atomic.AddInt64(&entry.HitCount, 1)
	c.hitCount.Add(1)

	// 返回副本，调用方的修改不影响缓存
	models := make([]string, len(entry.Models))
	copy(models, entry.Models)
	return models, true
}

// Set 写入供应商的模型清单
func (c *MemoryCache) Set(providerID string, models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 检查缓存大小限制
	if len(c.data) >= c.config.MaxSize {
		c.evictOldest()
	}

	modelsCopy := make([]string, len(models))
	copy(modelsCopy, models)

	c.data[providerID] = &CacheEntry{
		Models:    modelsCopy,
		ExpiresAt: time.Now().Add(c.config.TTL),
		CreatedAt: time.Now(),
	}
}

// Delete 删除指定供应商的缓存
func (c *MemoryCache) Delete(providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, providerID)
}

// Clear 清空所有缓存
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*CacheEntry)
	c.hitCount.Store(0)
	c.missCount.Store(0)
}

// Stats 获取缓存统计
func (c *MemoryCache) Stats() *CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := c.hitCount.Load()
	misses := c.missCount.Load()
	totalRequests := hits + misses
	hitRate := 0.0
	if totalRequests > 0 {
		hitRate = float64(hits) / float64(totalRequests)
	}

	return &CacheStats{
		Size:      len(c.data),
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate,
		TTL:       c.config.TTL,
	}
}

// Cleanup 清理过期缓存
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.ExpiresAt) {
			delete(c.data, key)
		}
	}
}

// Close 关闭缓存，停止清理协程
func (c *MemoryCache) Close() {
	close(c.stopCleanup)
}

// ==================== 私有方法 ====================

// startCleanup 启动定期清理
func (c *MemoryCache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// evictOldest 淘汰最老的缓存条目
func (c *MemoryCache) evictOldest() {
	if len(c.data) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

// DefaultCacheConfig 默认缓存配置
// 模型目录变化不频繁，5 分钟的有效期足够覆盖一次 CLI 会话
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTL:         5 * time.Minute,
		MaxSize:     100,
		CleanupTime: 10 * time.Minute,
	}
}
