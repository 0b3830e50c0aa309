package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/sirupsen/logrus"
)

var (
	// ErrModelNotFound 所有可用供应商都未宣告该模型
	ErrModelNotFound = errors.New("model not found")
	// ErrEmptyModel 模型名为空
	ErrEmptyModel = errors.New("model name is required")
	// ErrProviderUnavailable 供应商当前不可用，无法给出目录
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Service 模型目录服务
// 目录来自探测响应，经 TTL 缓存后支持模型归属解析
type Service struct {
	cache *MemoryCache
}

// NewService 创建目录服务
func NewService(cache *MemoryCache) *Service {
	if cache == nil {
		cache = NewMemoryCache(nil)
	}
	return &Service{cache: cache}
}

// ListModels 获取供应商当前可用的模型清单，优先走缓存
func (s *Service) ListModels(ctx context.Context, d selector.ProviderDescriptor) ([]string, error) {
	if models, ok := s.cache.Get(d.ID); ok {
		return models, nil
	}

	status := d.Prober.Probe(ctx)
	if !status.Healthy {
		if status.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, status.Error)
		}
		return nil, ErrProviderUnavailable
	}

	s.cache.Set(d.ID, status.ModelsAvailable)
	return status.ModelsAvailable, nil
}

// Resolve 在模式阶梯上解析模型归属
// 按模式排序逐个咨询可用供应商，返回第一个宣告该模型的；
// 不可用或未配置的供应商跳过，模型名比较忽略大小写
func (s *Service) Resolve(ctx context.Context, model string, mode selector.Mode, registry []selector.ProviderDescriptor) (*Resolution, error) {
	if strings.TrimSpace(model) == "" {
		return nil, ErrEmptyModel
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", selector.ErrInvalidMode, mode)
	}

	checked := make([]string, 0, len(registry))
	for _, d := range selector.RankedOrder(mode, registry) {
		if d.NotConfigured {
			continue
		}

		models, err := s.ListModels(ctx, d)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"provider": d.ID,
				"error":    err,
			}).Debug("目录咨询失败，跳过该供应商")
			continue
		}
		checked = append(checked, d.ID)

		for _, m := range models {
			if strings.EqualFold(m, model) {
				return &Resolution{
					Model:      m,
					ProviderID: d.ID,
					Kind:       d.Kind,
					Checked:    checked,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrModelNotFound, model)
}

// Invalidate 供应商状态变化后失效其目录缓存
func (s *Service) Invalidate(providerID string) {
	s.cache.Delete(providerID)
}

// CacheStats 暴露缓存统计
func (s *Service) CacheStats() *CacheStats {
	return s.cache.Stats()
}

// Close 释放缓存资源
func (s *Service) Close() {
	s.cache.Close()
}
