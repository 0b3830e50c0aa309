package models

import "time"

// SystemEvent 系统事件日志
// 用于记录系统重要事件，如选择运行、供应商启动、健康状态变化等
type SystemEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"type:varchar(50);not null;index" json:"type"` // selection_run, provider_started, etc.
	Message   string    `gorm:"type:text;not null" json:"message"`
	Level     string    `gorm:"type:varchar(20);not null;default:'info'" json:"level"` // info, warning, error
	Metadata  string    `gorm:"type:json" json:"metadata,omitempty"`                   // 额外的元数据（JSON 格式）
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (SystemEvent) TableName() string {
	return "system_events"
}

// EventType 事件类型常量
const (
	EventTypeSelectionRun      = "selection_run"         // 一次供应商选择运行
	EventTypeProviderStarted   = "provider_started"      // 本地供应商启动成功
	EventTypeStartFailed       = "provider_start_failed" // 本地供应商启动失败
	EventTypeProviderUnhealthy = "provider_unhealthy"    // 监控检测到供应商不健康
	EventTypeProviderRecovered = "provider_recovered"    // 监控检测到供应商恢复
	EventTypeProviderAdded     = "provider_added"        // 供应商添加
	EventTypeProviderUpdated   = "provider_updated"      // 供应商更新
	EventTypeProviderDeleted   = "provider_deleted"      // 供应商删除
)

// EventLevel 事件级别常量
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)
