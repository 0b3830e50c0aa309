package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/events"
	"github.com/maria-ai/maria-selector/internal/models"
)

// 默认与上限的事件条数
const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// EventsHandler 系统事件 HTTP 处理器
type EventsHandler struct {
	service *events.Service
}

// NewEventsHandler 创建 EventsHandler 实例
func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

// ListEvents 查询系统事件
// type 与 level 互斥，type 优先
// @Summary 查询系统事件
// @Tags events
// @Produce json
// @Param limit query int false "条数（默认 50，最大 200）"
// @Param type query string false "按事件类型过滤"
// @Param level query string false "按级别过滤（info/warning/error）"
// @Success 200 {array} models.SystemEvent
// @Router /api/events [get]
func (h *EventsHandler) ListEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventLimit)))
	if err != nil || limit < 1 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	var list []models.SystemEvent
	switch {
	case c.Query("type") != "":
		list, err = h.service.GetEventsByType(c.Query("type"), limit)
	case c.Query("level") != "":
		list, err = h.service.GetEventsByLevel(c.Query("level"), limit)
	default:
		list, err = h.service.GetRecentEvents(limit)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to query events")
		return
	}

	c.JSON(http.StatusOK, list)
}
