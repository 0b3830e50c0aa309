package selector

import "sort"

// 各模式的候选阶梯计算
// 排序只依赖模式与描述符本身，权重相同按 ID 字典序决胜，
// 与注册表传入顺序无关，保证重复运行产生相同的尝试序列

// rankFlat 纯权重排序
// performance 模式使用：权重自行编码本地与云端的交错顺序
// （快的本地服务 → 最快的云端 → 其余本地 → 其余云端）
func rankFlat(registry []ProviderDescriptor, mode Mode) []ProviderDescriptor {
	sorted := make([]ProviderDescriptor, len(registry))
	copy(sorted, registry)

	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := sorted[i].Weights.For(mode), sorted[j].Weights.For(mode)
		if wi != wj {
			return wi < wj
		}
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}

// rankLocalFirst 本地优先的分层排序
// privacy-first 与 auto 模式使用：无论权重如何配置，
// 本地供应商整体排在云端之前，云端只作兜底
func rankLocalFirst(registry []ProviderDescriptor, mode Mode) []ProviderDescriptor {
	sorted := make([]ProviderDescriptor, len(registry))
	copy(sorted, registry)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := kindTier(sorted[i].Kind), kindTier(sorted[j].Kind)
		if ti != tj {
			return ti < tj
		}
		wi, wj := sorted[i].Weights.For(mode), sorted[j].Weights.For(mode)
		if wi != wj {
			return wi < wj
		}
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}

// rankCostTiers cost-effective 的三段阶梯
// 免费档云端（权重低于全部本地）→ 本地 → 其余云端
func rankCostTiers(registry []ProviderDescriptor) (front, locals, back []ProviderDescriptor) {
	var clouds []ProviderDescriptor
	for _, d := range registry {
		if d.Kind.Local() {
			locals = append(locals, d)
		} else {
			clouds = append(clouds, d)
		}
	}

	sortByCost := func(list []ProviderDescriptor) {
		sort.SliceStable(list, func(i, j int) bool {
			wi, wj := list[i].Weights.Cost, list[j].Weights.Cost
			if wi != wj {
				return wi < wj
			}
			return list[i].ID < list[j].ID
		})
	}
	sortByCost(locals)
	sortByCost(clouds)

	// 没有本地候选时所有云端都在前段
	if len(locals) == 0 {
		return clouds, nil, nil
	}

	minLocal := locals[0].Weights.Cost
	for _, d := range clouds {
		if d.Weights.Cost < minLocal {
			front = append(front, d)
		} else {
			back = append(back, d)
		}
	}

	return front, locals, back
}

// kindTier 分层序号：本地在前，云端在后
func kindTier(k Kind) int {
	if k.Local() {
		return 0
	}
	return 1
}

// RankedOrder 返回指定模式下的完整候选顺序（用于展示与测试）
// 与 Select 的实际探测顺序一致
func RankedOrder(mode Mode, registry []ProviderDescriptor) []ProviderDescriptor {
	switch mode {
	case ModePerformance:
		return rankFlat(registry, mode)
	case ModeCostEffective:
		front, locals, back := rankCostTiers(registry)
		order := make([]ProviderDescriptor, 0, len(registry))
		order = append(order, front...)
		order = append(order, locals...)
		order = append(order, back...)
		return order
	default:
		return rankLocalFirst(registry, mode)
	}
}
