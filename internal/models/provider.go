package models

import (
	"time"

	"gorm.io/gorm"
)

// Provider 推理后端注册表条目
// 描述一个可被选择器探测/启动的推理服务（本地进程、本地服务或云端 API）
type Provider struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Slug              string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"` // 稳定标识符，如 lmstudio、ollama
	Name              string         `gorm:"type:varchar(100);not null" json:"name"`
	Kind              string         `gorm:"type:varchar(20);not null" json:"kind"` // local-process/local-server/cloud-api
	BaseURL           string         `gorm:"type:varchar(255);not null" json:"base_url"`
	APIKey            string         `gorm:"type:text" json:"api_key"`                    // 加密存储，仅云端供应商需要
	CredentialEnv     string         `gorm:"type:varchar(100)" json:"credential_env"`     // 优先于存储密钥的环境变量名
	StartCommand      string         `gorm:"type:varchar(255)" json:"start_command"`      // 本地供应商的启动命令
	ProbeStyle        string         `gorm:"type:varchar(20);default:'openai'" json:"probe_style"` // 探测端点形态
	Enabled           bool           `gorm:"not null;default:true" json:"enabled"`
	PrivacyWeight     int            `gorm:"not null;default:100" json:"privacy_weight"`     // 数字越小优先级越高
	PerformanceWeight int            `gorm:"not null;default:100" json:"performance_weight"` // 数字越小优先级越高
	CostWeight        int            `gorm:"not null;default:100" json:"cost_weight"`        // 数字越小优先级越高
	HealthStatus      string         `gorm:"type:varchar(20);default:'unknown'" json:"health_status"` // healthy/unhealthy/unknown
	LastCheckedAt     *time.Time     `json:"last_checked_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"` // 软删除支持
}

// TableName 指定表名
func (Provider) TableName() string {
	return "providers"
}

// ProviderKind 供应商类型常量
const (
	KindLocalProcess = "local-process" // 由 CLI 工具管理的本地进程
	KindLocalServer  = "local-server"  // 常驻本地 HTTP 服务
	KindCloudAPI     = "cloud-api"     // 云端 API，不可启动
)

// ProbeStyle 探测端点形态常量
const (
	ProbeStyleOpenAI   = "openai"   // GET /v1/models
	ProbeStyleLMStudio = "lmstudio" // GET /api/v0/models
	ProbeStyleOllama   = "ollama"   // GET /api/tags
	ProbeStyleGemini   = "gemini"   // GET /v1beta/models?key=
)

// HealthStatus 健康状态常量
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusUnknown   = "unknown"
)

// IsLocal 判断是否为本地供应商（具备启动能力的类型）
func (p *Provider) IsLocal() bool {
	return p.Kind == KindLocalProcess || p.Kind == KindLocalServer
}
