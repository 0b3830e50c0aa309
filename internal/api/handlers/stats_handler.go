package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/events"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/stats"
	"gorm.io/gorm"
)

// StatsHandler 统计信息处理器
type StatsHandler struct {
	db           *gorm.DB
	collector    *stats.Collector
	eventService *events.Service
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(db *gorm.DB, collector *stats.Collector, eventService *events.Service) *StatsHandler {
	return &StatsHandler{
		db:           db,
		collector:    collector,
		eventService: eventService,
	}
}

// SystemStats 系统统计信息响应
type SystemStats struct {
	UptimeSeconds int64                `json:"uptime_seconds"`
	Providers     ProviderStats        `json:"providers"`
	Requests      stats.RequestRates   `json:"requests"`
	Selection     stats.SelectionStats `json:"selection"`
	RecentEvents  []EventSummary       `json:"recent_events"`
}

// ProviderStats 供应商统计
type ProviderStats struct {
	Total     int `json:"total"`
	Enabled   int `json:"enabled"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Unknown   int `json:"unknown"`
}

// EventSummary 事件摘要
type EventSummary struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// GetStats 获取系统统计信息
// @Summary 获取系统统计信息
// @Description 系统概览：注册表健康分布、API 请求速率、选择域累计指标与最近事件
// @Tags stats
// @Produce json
// @Success 200 {object} SystemStats
// @Router /api/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	// 注册表健康分布
	var total, enabled, healthy, unhealthy int64
	h.db.Model(&models.Provider{}).Count(&total)
	h.db.Model(&models.Provider{}).Where("enabled = ?", true).Count(&enabled)
	h.db.Model(&models.Provider{}).Where("health_status = ?", models.HealthStatusHealthy).Count(&healthy)
	h.db.Model(&models.Provider{}).Where("health_status = ?", models.HealthStatusUnhealthy).Count(&unhealthy)

	snapshot := h.collector.Snapshot()

	// 最近事件（最多 10 条），查询失败时返回空列表而非报错
	recentEvents := make([]EventSummary, 0, 10)
	if recent, err := h.eventService.GetRecentEvents(10); err == nil {
		for _, evt := range recent {
			recentEvents = append(recentEvents, EventSummary{
				Timestamp: evt.CreatedAt.Format(time.RFC3339),
				Type:      evt.Type,
				Level:     evt.Level,
				Message:   evt.Message,
			})
		}
	}

	c.JSON(http.StatusOK, SystemStats{
		UptimeSeconds: snapshot.UptimeSeconds,
		Providers: ProviderStats{
			Total:     int(total),
			Enabled:   int(enabled),
			Healthy:   int(healthy),
			Unhealthy: int(unhealthy),
			Unknown:   int(total - healthy - unhealthy),
		},
		Requests:     snapshot.Requests,
		Selection:    snapshot.Selection,
		RecentEvents: recentEvents,
	})
}
