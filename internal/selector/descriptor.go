package selector

import (
	"errors"
	"fmt"

	"github.com/maria-ai/maria-selector/internal/launcher"
	"github.com/maria-ai/maria-selector/internal/probe"
)

var (
	// ErrInvalidMode 非法的优先级模式（编程错误，立即拒绝）
	ErrInvalidMode = errors.New("invalid priority mode")
	// ErrEmptyRegistry 候选注册表为空（编程错误，立即拒绝）
	ErrEmptyRegistry = errors.New("provider registry is empty")
)

// Mode 优先级模式
type Mode string

const (
	ModePrivacyFirst  Mode = "privacy-first"
	ModePerformance   Mode = "performance"
	ModeCostEffective Mode = "cost-effective"
	ModeAuto          Mode = "auto"
)

// Valid 判断模式取值是否合法
func (m Mode) Valid() bool {
	switch m {
	case ModePrivacyFirst, ModePerformance, ModeCostEffective, ModeAuto:
		return true
	}
	return false
}

// ParseMode 解析模式字符串
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Modes 所有合法模式
func Modes() []Mode {
	return []Mode{ModePrivacyFirst, ModePerformance, ModeCostEffective, ModeAuto}
}

// Kind 供应商类型
type Kind string

const (
	KindLocalProcess Kind = "local-process" // 由 CLI 工具管理的本地进程
	KindLocalServer  Kind = "local-server"  // 常驻本地 HTTP 服务
	KindCloudAPI     Kind = "cloud-api"     // 云端 API，永不启动
)

// Local 判断是否为本地类型（具备启动资格）
func (k Kind) Local() bool {
	return k == KindLocalProcess || k == KindLocalServer
}

// Weights 各模式下的排序权重，数字越小越靠前
type Weights struct {
	Privacy     int `json:"privacy"`
	Performance int `json:"performance"`
	Cost        int `json:"cost"`
}

// For 返回指定模式下的权重
// auto 模式复用隐私阶梯作为默认决胜顺序
func (w Weights) For(mode Mode) int {
	switch mode {
	case ModePerformance:
		return w.Performance
	case ModeCostEffective:
		return w.Cost
	default:
		return w.Privacy
	}
}

// ProviderDescriptor 候选供应商描述
// 每次选择运行构造一次，探测/启动能力由注册层按类型装配
type ProviderDescriptor struct {
	ID      string          // 稳定标识符，如 "lmstudio"、"ollama"
	Kind    Kind            // 供应商类型
	Prober  probe.Prober    // 探测能力，无副作用
	Starter launcher.Starter // 启动能力，可选；cloud-api 恒为 nil
	Weights Weights          // 各模式排序权重

	// NotConfigured 云端凭证缺失或为占位符
	// 未配置的候选不发起网络调用、不消耗启动预算，但仍计入尝试序列
	NotConfigured       bool
	NotConfiguredReason string
}

// startable 判断该候选是否具备启动资格
func (d *ProviderDescriptor) startable() bool {
	return d.Kind.Local() && d.Starter != nil
}
