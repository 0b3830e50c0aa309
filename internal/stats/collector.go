package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/maria-ai/maria-selector/internal/selector"
)

// ==================== 类型定义 ====================

// RequestRates API 请求速率
type RequestRates struct {
	Total int64   `json:"total"`
	QPS1m float64 `json:"qps_1m"`
	QPS5m float64 `json:"qps_5m"`
}

// SelectionStats 选择域累计指标
type SelectionStats struct {
	Runs             int64            `json:"runs"`
	NoProvider       int64            `json:"no_provider"`
	StartAttempts    int64            `json:"start_attempts"`
	StartFailures    int64            `json:"start_failures"`
	ProbeFailures    int64            `json:"probe_failures"`
	RunsByMode       map[string]int64 `json:"runs_by_mode"`
	ChosenByProvider map[string]int64 `json:"chosen_by_provider"`
}

// Stats 完整统计快照
type Stats struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	Requests      RequestRates   `json:"requests"`
	Selection     SelectionStats `json:"selection"`
}

// ==================== 收集器 ====================

// Collector 聚合 API 请求速率与选择域累计指标
// 进程内状态，重启归零；历史追溯走事件表
type Collector struct {
	shortWindow *RequestCounter // 1分钟窗口
	longWindow  *RequestCounter // 5分钟窗口

	selectionRuns  int64
	noProviderRuns int64
	startAttempts  int64
	startFailures  int64
	probeFailures  int64

	mu               sync.RWMutex
	runsByMode       map[string]int64
	chosenByProvider map[string]int64

	startedAt time.Time
}

// NewCollector 创建统计收集器
func NewCollector() *Collector {
	return &Collector{
		shortWindow:      NewRequestCounter(time.Minute),
		longWindow:       NewRequestCounter(5 * time.Minute),
		runsByMode:       make(map[string]int64),
		chosenByProvider: make(map[string]int64),
		startedAt:        time.Now(),
	}
}

// RecordRequest 记录一次 API 请求
func (c *Collector) RecordRequest() {
	c.shortWindow.Increment()
	c.longWindow.Increment()
}

// RecordSelection 记录一次选择运行的结果
func (c *Collector) RecordSelection(result *selector.SelectionResult) {
	if result == nil {
		return
	}

	atomic.AddInt64(&c.selectionRuns, 1)
	if result.NoProviderAvailable {
		atomic.AddInt64(&c.noProviderRuns, 1)
	}
	if result.StartedProviderID != "" {
		atomic.AddInt64(&c.startAttempts, 1)
	}
	for i := range result.Attempts {
		switch result.Attempts[i].FailureType {
		case selector.FailureProbe:
			atomic.AddInt64(&c.probeFailures, 1)
		case selector.FailureStart:
			atomic.AddInt64(&c.startFailures, 1)
		}
	}

	c.mu.Lock()
	c.runsByMode[string(result.Mode)]++
	if result.Chosen() {
		c.chosenByProvider[result.ChosenProviderID]++
	}
	c.mu.Unlock()
}

// Snapshot 获取统计快照
func (c *Collector) Snapshot() Stats {
	c.mu.RLock()
	runsByMode := make(map[string]int64, len(c.runsByMode))
	for mode, count := range c.runsByMode {
		runsByMode[mode] = count
	}
	chosenByProvider := make(map[string]int64, len(c.chosenByProvider))
	for providerID, count := range c.chosenByProvider {
		chosenByProvider[providerID] = count
	}
	c.mu.RUnlock()

	return Stats{
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
		Requests: RequestRates{
			Total: c.shortWindow.GetTotal(),
			QPS1m: c.shortWindow.GetQPS(),
			QPS5m: c.longWindow.GetQPS(),
		},
		Selection: SelectionStats{
			Runs:             atomic.LoadInt64(&c.selectionRuns),
			NoProvider:       atomic.LoadInt64(&c.noProviderRuns),
			StartAttempts:    atomic.LoadInt64(&c.startAttempts),
			StartFailures:    atomic.LoadInt64(&c.startFailures),
			ProbeFailures:    atomic.LoadInt64(&c.probeFailures),
			RunsByMode:       runsByMode,
			ChosenByProvider: chosenByProvider,
		},
	}
}

// Close 停止窗口滚动协程
func (c *Collector) Close() {
	c.shortWindow.Close()
	c.longWindow.Close()
}
