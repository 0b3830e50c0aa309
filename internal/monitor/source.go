package monitor

import (
	"fmt"

	"github.com/maria-ai/maria-selector/internal/registry"
)

// NewRegistrySource 从注册表构造巡检对象来源
// 每轮调用读一次启用的供应商并装配探测器，注册表变更在下一轮生效
func NewRegistrySource(repo *registry.Repository, builder *registry.DescriptorBuilder) TargetSource {
	return func() ([]Target, error) {
		providers, err := repo.FindEnabled()
		if err != nil {
			return nil, fmt.Errorf("读取启用供应商失败: %w", err)
		}

		rowIDs := make(map[string]uint, len(providers))
		for _, provider := range providers {
			rowIDs[provider.Slug] = provider.ID
		}

		descriptors := builder.Build(providers)
		targets := make([]Target, 0, len(descriptors))
		for _, descriptor := range descriptors {
			// 未配置凭证的云端供应商探测必然失败，不纳入巡检
			if descriptor.NotConfigured {
				continue
			}
			targets = append(targets, Target{
				ProviderID: descriptor.ID,
				RowID:      rowIDs[descriptor.ID],
				Prober:     descriptor.Prober,
			})
		}
		return targets, nil
	}
}
