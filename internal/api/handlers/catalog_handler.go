package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
)

// CatalogHandler 模型目录 HTTP 处理器
type CatalogHandler struct {
	catalog     *catalog.Service
	runner      *selection.Runner
	defaultMode selector.Mode
}

// NewCatalogHandler 创建 CatalogHandler 实例
func NewCatalogHandler(catalogService *catalog.Service, runner *selection.Runner, defaultMode selector.Mode) *CatalogHandler {
	if !defaultMode.Valid() {
		defaultMode = selector.ModeAuto
	}
	return &CatalogHandler{
		catalog:     catalogService,
		runner:      runner,
		defaultMode: defaultMode,
	}
}

// ResolveModel 解析模型归属
// 在模式阶梯上找到第一个宣告该模型的可用供应商
// @Summary 解析模型归属
// @Tags catalog
// @Produce json
// @Param model query string true "模型标识"
// @Param mode query string false "优先级模式（默认取服务配置）"
// @Success 200 {object} catalog.Resolution
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/resolve [get]
func (h *CatalogHandler) ResolveModel(c *gin.Context) {
	model := c.Query("model")
	if model == "" {
		respondError(c, http.StatusBadRequest, "MISSING_MODEL", "Query parameter 'model' is required")
		return
	}

	mode := h.defaultMode
	if q := c.Query("mode"); q != "" {
		parsed, err := selector.ParseMode(q)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_MODE", err.Error())
			return
		}
		mode = parsed
	}

	descriptors, err := h.runner.Descriptors()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load provider registry")
		return
	}

	resolution, err := h.catalog.Resolve(c.Request.Context(), model, mode, descriptors)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrModelNotFound):
			respondErrorDetails(c, http.StatusNotFound, "MODEL_NOT_FOUND", "No available provider serves this model", model)
		case errors.Is(err, catalog.ErrEmptyModel):
			respondError(c, http.StatusBadRequest, "MISSING_MODEL", "Query parameter 'model' is required")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Model resolution failed")
		}
		return
	}

	c.JSON(http.StatusOK, resolution)
}
