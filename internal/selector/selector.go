package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maria-ai/maria-selector/internal/launcher"
	"github.com/maria-ai/maria-selector/internal/probe"
	"github.com/sirupsen/logrus"
)

// Config 选择器配置
type Config struct {
	ProbeTimeout time.Duration // 单候选探测超时，默认 5 秒
	PollInterval time.Duration // 启动后轮询间隔，默认 2 秒
	StartTimeout time.Duration // 启动后等待健康的最大时长，默认 30 秒
}

// Selector 供应商选择器
// 严格串行评估候选：探测与启动都有副作用边界，不做并行，
// 共享状态只有只读的注册表与逐步构建的结果，因此无需加锁
type Selector struct {
	config *Config
}

// NewSelector 创建选择器
func NewSelector(config *Config) *Selector {
	if config == nil {
		config = &Config{}
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 5 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = launcher.DefaultPollInterval
	}
	if config.StartTimeout <= 0 {
		config.StartTimeout = launcher.DefaultStartTimeout
	}

	return &Selector{config: config}
}

// ==================== 选择主流程 ====================

// Select 在给定模式下选出至多一个健康供应商
// 候选级失败（探测失败、启动超时、凭证未配置）一律吸收进结果数据；
// 返回 error 仅限前置条件违例：非法模式或空注册表
func (s *Selector) Select(ctx context.Context, mode Mode, registry []ProviderDescriptor) (*SelectionResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if len(registry) == 0 {
		return nil, ErrEmptyRegistry
	}

	startTime := time.Now()
	run := &runState{
		result: &SelectionResult{
			RunID:        uuid.New().String(),
			Mode:         mode,
			AttemptedIDs: []string{},
			Attempts:     []Attempt{},
			Timestamp:    startTime,
		},
		statuses:   make(map[string]probe.Status),
		attemptIdx: make(map[string]int),
	}

	log := logrus.WithFields(logrus.Fields{
		"run_id":     run.result.RunID,
		"mode":       mode,
		"candidates": len(registry),
	})
	log.Info("🔄 开始供应商选择")

	switch mode {
	case ModePrivacyFirst:
		// 本地按准确度权重逐个探测，必要时当场启动，云端兜底
		s.walk(ctx, run, rankLocalFirst(registry, mode), false)

	case ModePerformance:
		// 纯权重顺序：快的本地 → 最快云端 → 其余
		s.walk(ctx, run, rankFlat(registry, mode), false)

	case ModeCostEffective:
		// 免费档云端 → 已在运行的本地 → 启动一个本地 → 其余云端
		front, locals, back := rankCostTiers(registry)
		s.walk(ctx, run, front, false)
		if !run.result.Chosen() {
			s.walk(ctx, run, locals, true)
		}
		if !run.result.Chosen() {
			s.startPass(ctx, run, locals)
		}
		if !run.result.Chosen() {
			s.walk(ctx, run, back, false)
		}

	case ModeAuto:
		// 先纯探测一轮：任何已在运行的健康供应商直接胜出，
		// 全部落空后才把唯一的启动预算花在第一个可启动的本地候选上
		order := rankLocalFirst(registry, mode)
		s.walk(ctx, run, order, true)
		if !run.result.Chosen() {
			s.startPass(ctx, run, order)
		}
	}

	run.result.DurationMs = time.Since(startTime).Milliseconds()

	if run.result.Chosen() {
		log.WithField("chosen", run.result.ChosenProviderID).Info("✅ 供应商选择完成")
	} else {
		run.result.NoProviderAvailable = true
		log.WithField("attempted", len(run.result.AttemptedIDs)).Warn("⚠️ 所有候选均不可用")
	}

	return run.result, nil
}

// walk 按给定顺序逐个评估候选
// probeOnly 时只探测不启动；否则第一个满足启动资格
// （本地类型、具备启动能力、未在运行）的候选消费本次运行唯一的启动预算
func (s *Selector) walk(ctx context.Context, run *runState, candidates []ProviderDescriptor, probeOnly bool) {
	for i := range candidates {
		if run.result.Chosen() {
			return
		}
		d := &candidates[i]

		// 未配置的云端候选：不发起网络调用，直接记录并跳过
		if d.NotConfigured {
			run.skip(d)
			continue
		}

		began := time.Now()
		att := run.touch(d)

		status := s.probeOnce(ctx, d)
		run.statuses[d.ID] = status
		att.Status = status

		if status.Healthy {
			run.choose(d, att)
			att.ElapsedMs += time.Since(began).Milliseconds()
			return
		}

		if !probeOnly && !run.startSpent && d.startable() && !status.Running {
			s.startCandidate(ctx, run, d, att)
			att.ElapsedMs += time.Since(began).Milliseconds()
			if run.result.Chosen() {
				return
			}
			continue
		}

		att.FailureType = FailureProbe
		att.Error = status.Error
		att.ElapsedMs += time.Since(began).Milliseconds()
	}
}

// startPass 把唯一的启动预算花在第一个符合资格的候选上
// 资格：本地类型、具备启动能力、凭探测快照确认未在运行
// 已在运行但不健康的服务不消费预算，重启一个已经坏掉的服务无济于事
func (s *Selector) startPass(ctx context.Context, run *runState, candidates []ProviderDescriptor) {
	if run.startSpent {
		return
	}

	for i := range candidates {
		d := &candidates[i]
		if d.NotConfigured || !d.startable() {
			continue
		}
		if status, probed := run.statuses[d.ID]; probed && status.Running {
			continue
		}

		began := time.Now()
		att := run.touch(d)
		s.startCandidate(ctx, run, d, att)
		att.ElapsedMs += time.Since(began).Milliseconds()

		// 预算已消费，无论成败都不再尝试启动其他候选
		return
	}
}

// startCandidate 启动候选并轮询确认就绪
// 启动每次运行至多发生一次、每个候选绝不重试
func (s *Selector) startCandidate(ctx context.Context, run *runState, d *ProviderDescriptor, att *Attempt) {
	run.startSpent = true
	run.result.StartedProviderID = d.ID
	att.StartAttempted = true

	log := logrus.WithFields(logrus.Fields{
		"run_id":   run.result.RunID,
		"provider": d.ID,
	})
	log.Info("🔄 尝试启动本地供应商")

	if err := d.Starter.Start(ctx); err != nil {
		att.FailureType = FailureStart
		att.Error = fmt.Sprintf("启动失败: %v", err)
		log.WithField("error", err).Warn("⚠️ 本地供应商启动失败")
		return
	}

	// 有界轮询：固定间隔重探直至健康或超出最大时长
	status, ok := launcher.WaitHealthy(ctx, s.boundedProber(d), s.config.PollInterval, s.config.StartTimeout)
	run.statuses[d.ID] = status
	att.Status = status

	if ok {
		run.choose(d, att)
		log.Info("✅ 本地供应商启动成功")
		return
	}

	att.FailureType = FailureStart
	if status.Error != "" {
		att.Error = fmt.Sprintf("启动后未在 %s 内就绪: %s", s.config.StartTimeout, status.Error)
	} else {
		att.Error = fmt.Sprintf("启动后未在 %s 内就绪", s.config.StartTimeout)
	}
	log.Warn("⚠️ 本地供应商启动后未就绪，继续下一候选")
}

// probeOnce 单次探测，施加每候选超时
func (s *Selector) probeOnce(ctx context.Context, d *ProviderDescriptor) probe.Status {
	probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
	defer cancel()

	return d.Prober.Probe(probeCtx)
}

// boundedProber 包装探测器，轮询期间的每次重探同样受超时约束
func (s *Selector) boundedProber(d *ProviderDescriptor) probe.Prober {
	prober := d.Prober
	timeout := s.config.ProbeTimeout
	return probe.Func(func(ctx context.Context) probe.Status {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return prober.Probe(probeCtx)
	})
}

// ==================== 运行状态记录 ====================

// runState 单次运行的过程状态
type runState struct {
	result     *SelectionResult
	statuses   map[string]probe.Status // 候选最近一次探测快照
	attemptIdx map[string]int          // 候选标识 → Attempts 下标
	startSpent bool                    // 本次运行唯一的启动预算是否已消费
}

// touch 确保候选存在尝试记录；首次触达时计入尝试序列
func (r *runState) touch(d *ProviderDescriptor) *Attempt {
	if idx, ok := r.attemptIdx[d.ID]; ok {
		return &r.result.Attempts[idx]
	}

	r.result.AttemptedIDs = append(r.result.AttemptedIDs, d.ID)
	r.result.Attempts = append(r.result.Attempts, Attempt{
		ProviderID: d.ID,
		Kind:       d.Kind,
	})
	idx := len(r.result.Attempts) - 1
	r.attemptIdx[d.ID] = idx
	return &r.result.Attempts[idx]
}

// skip 记录未配置候选：计入尝试序列但不探测、不消耗启动预算
func (r *runState) skip(d *ProviderDescriptor) {
	att := r.touch(d)
	att.FailureType = FailureNotConfigured
	if d.NotConfiguredReason != "" {
		att.Error = d.NotConfiguredReason
	} else {
		att.Error = "凭证缺失或为占位符"
	}
}

// choose 选中候选，清除其失败标记
func (r *runState) choose(d *ProviderDescriptor, att *Attempt) {
	att.FailureType = ""
	att.Error = ""
	r.result.ChosenProviderID = d.ID
}
