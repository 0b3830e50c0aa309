package selector

import (
	"time"

	"github.com/maria-ai/maria-selector/internal/probe"
)

// FailureType 候选失败类型枚举
type FailureType string

const (
	// FailureProbe 探测失败：网络不可达、超时、响应格式错误等
	FailureProbe FailureType = "probe_error"
	// FailureStart 启动失败：进程拉起失败或超时内未变为健康
	FailureStart FailureType = "start_error"
	// FailureNotConfigured 云端凭证缺失或为占位符，未发起网络调用
	FailureNotConfigured FailureType = "not_configured"
)

// Attempt 单个候选的尝试记录
type Attempt struct {
	ProviderID     string       `json:"provider_id"`
	Kind           Kind         `json:"kind"`
	FailureType    FailureType  `json:"failure_type,omitempty"` // 被选中时为空
	Error          string       `json:"error,omitempty"`
	StartAttempted bool         `json:"start_attempted"`
	Status         probe.Status `json:"status"`
	ElapsedMs      int64        `json:"elapsed_ms"`
}

// SelectionResult 一次选择运行的完整结果
// 候选级失败全部记录为数据，运行本身不抛错
type SelectionResult struct {
	RunID               string    `json:"run_id"`
	Mode                Mode      `json:"mode"`
	ChosenProviderID    string    `json:"chosen_provider_id,omitempty"`
	AttemptedIDs        []string  `json:"attempted_ids"` // 实际尝试顺序，每个候选至多出现一次
	Attempts            []Attempt `json:"attempts"`
	StartedProviderID   string    `json:"started_provider_id,omitempty"` // 本次运行唯一被启动的候选
	NoProviderAvailable bool      `json:"no_provider_available"`
	Timestamp           time.Time `json:"timestamp"`
	DurationMs          int64     `json:"duration_ms"`
}

// Chosen 是否选中了供应商
func (r *SelectionResult) Chosen() bool {
	return r.ChosenProviderID != ""
}

// AttemptFor 按候选标识查找尝试记录，未尝试返回 nil
func (r *SelectionResult) AttemptFor(providerID string) *Attempt {
	for i := range r.Attempts {
		if r.Attempts[i].ProviderID == providerID {
			return &r.Attempts[i]
		}
	}
	return nil
}
