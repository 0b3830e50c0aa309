package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
)

// SelectionHandler 选择运行 HTTP 处理器
type SelectionHandler struct {
	runner      *selection.Runner
	store       *selection.Store
	defaultMode selector.Mode
	freshWindow time.Duration
}

// NewSelectionHandler 创建 SelectionHandler 实例
func NewSelectionHandler(runner *selection.Runner, store *selection.Store, defaultMode selector.Mode, freshWindow time.Duration) *SelectionHandler {
	if !defaultMode.Valid() {
		defaultMode = selector.ModeAuto
	}
	return &SelectionHandler{
		runner:      runner,
		store:       store,
		defaultMode: defaultMode,
		freshWindow: freshWindow,
	}
}

// SelectRequest 选择运行请求
// mode 省略时使用服务的默认模式
type SelectRequest struct {
	Mode string `json:"mode"`
}

// LatestSelectionResponse 最近一次选择结果响应
type LatestSelectionResponse struct {
	Result     *selector.SelectionResult `json:"result"`
	Fresh      bool                      `json:"fresh"`
	AgeSeconds int64                     `json:"age_seconds"`
}

// RunSelection 执行一次选择运行
// @Summary 执行一次供应商选择
// @Tags selection
// @Accept json
// @Produce json
// @Param request body SelectRequest false "选择参数"
// @Success 200 {object} selector.SelectionResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/select [post]
func (h *SelectionHandler) RunSelection(c *gin.Context) {
	var req SelectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err.Error())
			return
		}
	}

	mode := h.defaultMode
	if req.Mode != "" {
		parsed, err := selector.ParseMode(req.Mode)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_MODE", err.Error())
			return
		}
		mode = parsed
	}

	result, err := h.runner.Run(c.Request.Context(), mode)
	if err != nil {
		switch {
		case errors.Is(err, selector.ErrEmptyRegistry):
			respondError(c, http.StatusConflict, "EMPTY_REGISTRY", "No enabled providers in registry")
		case errors.Is(err, selector.ErrInvalidMode):
			respondError(c, http.StatusBadRequest, "INVALID_MODE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Selection run failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatest 读取最近一次持久化的选择结果
// @Summary 读取最近一次选择结果
// @Tags selection
// @Produce json
// @Success 200 {object} LatestSelectionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/selection/latest [get]
func (h *SelectionHandler) GetLatest(c *gin.Context) {
	result, err := h.store.Load()
	if err != nil {
		if errors.Is(err, selection.ErrNoSelection) {
			respondError(c, http.StatusNotFound, "NO_SELECTION", "No selection has been persisted yet")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load selection result")
		return
	}

	age := time.Since(result.Timestamp)
	c.JSON(http.StatusOK, LatestSelectionResponse{
		Result:     result,
		Fresh:      h.freshWindow > 0 && age <= h.freshWindow,
		AgeSeconds: int64(age.Seconds()),
	})
}
