package catalog

import (
	"time"

	"github.com/maria-ai/maria-selector/internal/selector"
)

// CacheConfig 缓存配置
type CacheConfig struct {
	TTL         time.Duration // 条目有效期
	MaxSize     int           // 最大条目数
	CleanupTime time.Duration // 定期清理间隔
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Models    []string
	ExpiresAt time.Time
	CreatedAt time.Time
	HitCount  int64
}

// CacheStats 缓存统计
type CacheStats struct {
	Size      int           `json:"size"`
	HitCount  int64         `json:"hit_count"`
	MissCount int64         `json:"miss_count"`
	HitRate   float64       `json:"hit_rate"`
	TTL       time.Duration `json:"ttl"`
}

// Resolution 模型解析结果
// Checked 按咨询顺序记录成功给出目录的供应商
type Resolution struct {
	Model      string        `json:"model"`
	ProviderID string        `json:"provider_id"`
	Kind       selector.Kind `json:"kind"`
	Checked    []string      `json:"checked"`
}
