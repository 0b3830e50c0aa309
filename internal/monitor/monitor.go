package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/probe"
	"github.com/sirupsen/logrus"
)

// ==================== 类型定义 ====================

// Target 一个巡检对象
// RowID 为注册表行号，健康状态回写用；0 表示不回写
type Target struct {
	ProviderID string
	RowID      uint
	Prober     probe.Prober
}

// TargetSource 提供每轮巡检的对象集合
// 每轮重新取一次，注册表的增删改在下一轮自然生效
type TargetSource func() ([]Target, error)

// EventSink 巡检事件落库，events.Service 满足该接口
type EventSink interface {
	LogInfo(eventType, message string, metadata map[string]interface{}) error
	LogWarning(eventType, message string, metadata map[string]interface{}) error
}

// StatusWriter 健康状态回写，registry.Service 满足该接口
type StatusWriter interface {
	UpdateProviderHealthStatus(id uint, healthStatus string) error
}

// ProviderHealth 单个供应商的巡检状态快照
type ProviderHealth struct {
	ProviderID          string    `json:"provider_id"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalProbes         int64     `json:"total_probes"`
	TotalFailures       int64     `json:"total_failures"`
	Unhealthy           bool      `json:"unhealthy"`
	LastProbeAt         time.Time `json:"last_probe_at"`
	LastHealthyAt       time.Time `json:"last_healthy_at,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
}

// Config 健康巡检配置
type Config struct {
	Interval         time.Duration // 巡检间隔，默认1分钟
	FailureThreshold int           // 连续失败阈值，默认3次
	ProbeTimeout     time.Duration // 单对象探测超时，默认5秒
}

// DefaultConfig 默认巡检配置
func DefaultConfig() *Config {
	return &Config{
		Interval:         time.Minute,
		FailureThreshold: 3,
		ProbeTimeout:     5 * time.Second,
	}
}

// ==================== 监视器 ====================

// Monitor 周期性健康巡检
// 逐个探测启用的供应商；连续失败达到阈值标记为不健康并记录事件，
// 恢复后同样记录。每次探测的结论回写注册表健康状态列。
type Monitor struct {
	config *Config
	source TargetSource
	writer StatusWriter // 可为 nil
	sink   EventSink    // 可为 nil

	// OnStateChange 健康状态翻转回调，Start 之前设置
	// 目录缓存失效等联动挂在这里
	OnStateChange func(providerID string, unhealthy bool)

	mu     sync.RWMutex
	states map[string]*providerState

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// providerState 内部巡检状态
type providerState struct {
	consecutiveFailures int
	totalProbes         int64
	totalFailures       int64
	unhealthy           bool
	lastProbeAt         time.Time
	lastHealthyAt       time.Time
	lastError           string
}

// New 创建监视器
func New(config *Config, source TargetSource, writer StatusWriter, sink EventSink) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}

	// 确保关键配置项有合法的默认值
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 5 * time.Second
	}

	return &Monitor{
		config: config,
		source: source,
		writer: writer,
		sink:   sink,
		states: make(map[string]*providerState),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start 启动后台巡检循环
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		go m.run()
		logrus.WithField("interval", m.config.Interval).Info("📊 健康巡检已启动")
	})
}

// Stop 停止巡检并等待循环退出
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.doneCh
		logrus.Info("👋 健康巡检已停止")
	})
}

// run 巡检主循环：启动即跑一轮，之后按固定间隔
func (m *Monitor) run() {
	defer close(m.doneCh)

	m.RunOnce(context.Background())

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// RunOnce 执行一轮巡检
func (m *Monitor) RunOnce(ctx context.Context) {
	targets, err := m.source()
	if err != nil {
		logrus.WithField("error", err).Warn("⚠️ 获取巡检对象失败，跳过本轮")
		return
	}

	healthyCount := 0
	for _, target := range targets {
		select {
		case <-m.stopCh:
			return
		default:
		}

		if m.probeTarget(ctx, target) {
			healthyCount++
		}
	}

	logrus.WithFields(logrus.Fields{
		"targets": len(targets),
		"healthy": healthyCount,
	}).Debug("健康巡检完成一轮")
}

// probeTarget 探测单个对象并更新其状态
func (m *Monitor) probeTarget(ctx context.Context, target Target) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	status := target.Prober.Probe(probeCtx)
	cancel()

	if status.Healthy {
		m.recordSuccess(target)
		return true
	}
	m.recordFailure(target, status.Error)
	return false
}

// recordSuccess 记录一次健康探测
func (m *Monitor) recordSuccess(target Target) {
	m.mu.Lock()
	state := m.getOrCreateState(target.ProviderID)
	state.totalProbes++
	state.lastProbeAt = time.Now()
	state.lastHealthyAt = time.Now()
	state.lastError = ""
	state.consecutiveFailures = 0
	recovered := state.unhealthy
	state.unhealthy = false
	m.mu.Unlock()

	m.writeStatus(target, models.HealthStatusHealthy)

	if recovered {
		logrus.WithField("provider", target.ProviderID).Info("✅ 供应商已恢复")
		if m.sink != nil {
			m.sink.LogInfo(models.EventTypeProviderRecovered, "供应商已恢复: "+target.ProviderID, map[string]interface{}{
				"provider": target.ProviderID,
			})
		}
		if m.OnStateChange != nil {
			m.OnStateChange(target.ProviderID, false)
		}
	}
}

// recordFailure 记录一次失败探测，达到阈值时翻转为不健康
func (m *Monitor) recordFailure(target Target, probeError string) {
	m.mu.Lock()
	state := m.getOrCreateState(target.ProviderID)
	state.totalProbes++
	state.totalFailures++
	state.lastProbeAt = time.Now()
	state.lastError = probeError
	state.consecutiveFailures++
	crossed := !state.unhealthy && state.consecutiveFailures >= m.config.FailureThreshold
	if crossed {
		state.unhealthy = true
	}
	failures := state.consecutiveFailures
	m.mu.Unlock()

	m.writeStatus(target, models.HealthStatusUnhealthy)

	if crossed {
		logrus.WithFields(logrus.Fields{
			"provider": target.ProviderID,
			"failures": failures,
		}).Warn("⚠️ 供应商连续失败，标记为不健康")
		if m.sink != nil {
			m.sink.LogWarning(models.EventTypeProviderUnhealthy, "供应商不健康: "+target.ProviderID, map[string]interface{}{
				"provider":             target.ProviderID,
				"consecutive_failures": failures,
				"error":                probeError,
			})
		}
		if m.OnStateChange != nil {
			m.OnStateChange(target.ProviderID, true)
		}
	}
}

// writeStatus 健康结论回写注册表
func (m *Monitor) writeStatus(target Target, healthStatus string) {
	if m.writer == nil || target.RowID == 0 {
		return
	}
	if err := m.writer.UpdateProviderHealthStatus(target.RowID, healthStatus); err != nil {
		logrus.WithFields(logrus.Fields{
			"provider": target.ProviderID,
			"error":    err,
		}).Warn("⚠️ 健康状态回写失败")
	}
}

// getOrCreateState 取或建内部状态，调用方持有写锁
func (m *Monitor) getOrCreateState(providerID string) *providerState {
	state, exists := m.states[providerID]
	if !exists {
		state = &providerState{}
		m.states[providerID] = state
	}
	return state
}

// ==================== 状态查询 ====================

// Health 获取单个供应商的巡检状态快照
func (m *Monitor) Health(providerID string) *ProviderHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[providerID]
	if !exists {
		return nil
	}
	return snapshotState(providerID, state)
}

// AllHealth 获取全部巡检状态快照
func (m *Monitor) AllHealth() map[string]*ProviderHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make(map[string]*ProviderHealth, len(m.states))
	for providerID, state := range m.states {
		all[providerID] = snapshotState(providerID, state)
	}
	return all
}

func snapshotState(providerID string, state *providerState) *ProviderHealth {
	return &ProviderHealth{
		ProviderID:          providerID,
		ConsecutiveFailures: state.consecutiveFailures,
		TotalProbes:         state.totalProbes,
		TotalFailures:       state.totalFailures,
		Unhealthy:           state.unhealthy,
		LastProbeAt:         state.lastProbeAt,
		LastHealthyAt:       state.lastHealthyAt,
		LastError:           state.lastError,
	}
}
