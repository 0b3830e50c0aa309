package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/maria-ai/maria-selector/internal/events"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/maria-ai/maria-selector/internal/stats"
	"github.com/sirupsen/logrus"
)

// Runner 一次完整选择运行的编排器
// 选择器核心不碰磁盘；读注册表、装配候选、持久化结果、
// 记录事件与统计都由这里完成
type Runner struct {
	repo    *registry.Repository
	builder *registry.DescriptorBuilder
	sel     *selector.Selector
	store   *Store
	events  *events.Service  // 可为 nil
	stats   *stats.Collector // 可为 nil
}

// NewRunner 创建编排器
func NewRunner(repo *registry.Repository, builder *registry.DescriptorBuilder, sel *selector.Selector, store *Store) *Runner {
	return &Runner{
		repo:    repo,
		builder: builder,
		sel:     sel,
		store:   store,
	}
}

// WithEvents 挂接事件落库
func (r *Runner) WithEvents(service *events.Service) *Runner {
	r.events = service
	return r
}

// WithStats 挂接统计收集
func (r *Runner) WithStats(collector *stats.Collector) *Runner {
	r.stats = collector
	return r
}

// Store 返回结果存取器
func (r *Runner) Store() *Store {
	return r.store
}

// Descriptors 返回当前启用供应商装配出的候选描述
func (r *Runner) Descriptors() ([]selector.ProviderDescriptor, error) {
	providers, err := r.repo.FindEnabled()
	if err != nil {
		return nil, fmt.Errorf("读取启用供应商失败: %w", err)
	}
	return r.builder.Build(providers), nil
}

// Run 执行一次完整的选择运行
// 选择结论总是返回给调用方；持久化与事件/统计记录失败只告警，
// 不推翻已经得出的结论
func (r *Runner) Run(ctx context.Context, mode selector.Mode) (*selector.SelectionResult, error) {
	descriptors, err := r.Descriptors()
	if err != nil {
		return nil, err
	}

	result, err := r.sel.Select(ctx, mode, descriptors)
	if err != nil {
		return nil, err
	}

	if err := r.store.Save(result); err != nil {
		logrus.WithFields(logrus.Fields{
			"run_id": result.RunID,
			"error":  err,
		}).Warn("⚠️ 选择结果持久化失败")
	}

	if r.events != nil {
		if err := r.events.LogSelectionRun(result); err != nil {
			logrus.WithField("error", err).Warn("⚠️ 选择事件记录失败")
		}
		r.logStartOutcome(result)
	}
	if r.stats != nil {
		r.stats.RecordSelection(result)
	}

	return result, nil
}

// Cached 返回新鲜窗口内的上一次结果
func (r *Runner) Cached(window time.Duration) (*selector.SelectionResult, bool) {
	return r.store.Fresh(window)
}

// logStartOutcome 启动尝试的结局单独记一条事件
func (r *Runner) logStartOutcome(result *selector.SelectionResult) {
	if result.StartedProviderID == "" {
		return
	}
	att := result.AttemptFor(result.StartedProviderID)
	if att == nil {
		return
	}

	metadata := map[string]interface{}{
		"run_id":   result.RunID,
		"provider": result.StartedProviderID,
	}

	var err error
	if att.FailureType == selector.FailureStart {
		metadata["error"] = att.Error
		err = r.events.LogWarning(models.EventTypeStartFailed,
			"供应商启动失败: "+result.StartedProviderID, metadata)
	} else {
		err = r.events.LogInfo(models.EventTypeProviderStarted,
			"供应商启动成功: "+result.StartedProviderID, metadata)
	}
	if err != nil {
		logrus.WithField("error", err).Warn("⚠️ 启动事件记录失败")
	}
}
