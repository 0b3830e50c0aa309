package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
)

// ProviderHandler 供应商 HTTP 处理器
type ProviderHandler struct {
	service *registry.Service
	builder *registry.DescriptorBuilder
	catalog *catalog.Service
}

// NewProviderHandler 创建 ProviderHandler 实例
func NewProviderHandler(service *registry.Service, builder *registry.DescriptorBuilder, catalogService *catalog.Service) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		builder: builder,
		catalog: catalogService,
	}
}

// CreateProvider 创建供应商
// @Summary 创建供应商
// @Tags providers
// @Accept json
// @Produce json
// @Param provider body registry.CreateProviderRequest true "供应商信息"
// @Success 201 {object} registry.ProviderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/providers [post]
func (h *ProviderHandler) CreateProvider(c *gin.Context) {
	var req registry.CreateProviderRequest

	// 绑定请求体
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err.Error())
		return
	}

	prov, err := h.service.CreateProvider(req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registry.ToProviderResponse(prov))
}

// ListProviders 获取供应商列表（分页）
// @Summary 获取供应商列表
// @Tags providers
// @Produce json
// @Param page query int false "页码（默认 1）"
// @Param page_size query int false "每页数量（默认 10，最大 100）"
// @Success 200 {object} registry.ProviderListResponse
// @Router /api/providers [get]
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	providers, total, err := h.service.ListProviders(page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list providers")
		return
	}

	// 服务层会把非法分页参数归一化，这里按归一化后的值回显
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	c.JSON(http.StatusOK, registry.ProviderListResponse{
		Data: registry.ToProviderResponseList(providers),
		Pagination: registry.PaginationMeta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}

// GetProvider 获取单个供应商
// @Summary 获取单个供应商
// @Tags providers
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} registry.ProviderResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/providers/{id} [get]
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	prov, err := h.service.GetProvider(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, registry.ToProviderResponse(prov))
}

// UpdateProvider 更新供应商
// @Summary 更新供应商
// @Tags providers
// @Accept json
// @Produce json
// @Param id path int true "供应商 ID"
// @Param provider body registry.UpdateProviderRequest true "更新内容"
// @Success 200 {object} registry.ProviderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/providers/{id} [put]
func (h *ProviderHandler) UpdateProvider(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req registry.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err.Error())
		return
	}

	prov, err := h.service.UpdateProvider(id, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, registry.ToProviderResponse(prov))
}

// DeleteProvider 删除供应商
// @Summary 删除供应商
// @Tags providers
// @Param id path int true "供应商 ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/providers/{id} [delete]
func (h *ProviderHandler) DeleteProvider(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProvider(id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckProviderHealth 手动触发一次健康检查
// @Summary 检查供应商健康状态
// @Tags providers
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} HealthCheckResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/providers/{id}/health [get]
func (h *ProviderHandler) CheckProviderHealth(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	prov, err := h.service.GetProvider(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	// 手动检查对停用的供应商同样有效，构建描述符前临时置为启用
	snapshot := *prov
	snapshot.Enabled = true
	descriptors := h.builder.Build([]*models.Provider{&snapshot})
	if len(descriptors) == 0 {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build provider descriptor")
		return
	}
	desc := descriptors[0]

	resp := HealthCheckResponse{
		ProviderID: prov.ID,
		Slug:       prov.Slug,
	}

	if desc.NotConfigured {
		resp.Healthy = false
		resp.NotConfigured = true
		resp.Error = desc.NotConfiguredReason
		c.JSON(http.StatusOK, resp)
		return
	}

	status := desc.Prober.Probe(c.Request.Context())

	resp.Healthy = status.Healthy
	resp.Running = status.Running
	resp.ResponseTimeMs = status.ResponseTimeMs
	resp.StatusCode = status.StatusCode
	resp.ModelsAvailable = status.ModelsAvailable
	resp.Error = status.Error
	resp.CheckedAt = status.CheckedAt

	// 回写健康状态，失败不影响响应
	healthStatus := models.HealthStatusUnhealthy
	if status.Healthy {
		healthStatus = models.HealthStatusHealthy
	}
	if prov.HealthStatus != healthStatus {
		if err := h.service.UpdateProviderHealthStatus(prov.ID, healthStatus); err != nil {
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetProviderModels 获取供应商可用模型列表
// @Summary 获取供应商可用模型列表
// @Tags providers
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} AvailableModelsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/providers/{id}/models [get]
func (h *ProviderHandler) GetProviderModels(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	prov, err := h.service.GetProvider(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	snapshot := *prov
	snapshot.Enabled = true
	descriptors := h.builder.Build([]*models.Provider{&snapshot})
	if len(descriptors) == 0 {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build provider descriptor")
		return
	}
	desc := descriptors[0]

	if desc.NotConfigured {
		respondErrorDetails(c, http.StatusBadRequest, "NOT_CONFIGURED", "Provider is not configured", desc.NotConfiguredReason)
		return
	}

	modelIDs, err := h.catalog.ListModels(c.Request.Context(), desc)
	if err != nil {
		respondErrorDetails(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to fetch models from provider", err.Error())
		return
	}

	c.JSON(http.StatusOK, AvailableModelsResponse{
		ProviderID: prov.ID,
		Slug:       prov.Slug,
		Models:     modelIDs,
		Count:      len(modelIDs),
	})
}

// handleServiceError 按错误类型映射 HTTP 状态码
func (h *ProviderHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrProviderNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Provider not found")
	case errors.Is(err, registry.ErrProviderSlugExists):
		respondError(c, http.StatusConflict, "SLUG_CONFLICT", "Provider slug already exists")
	case errors.Is(err, registry.ErrInvalidInput),
		errors.Is(err, registry.ErrInvalidURL),
		errors.Is(err, registry.ErrInvalidKind),
		errors.Is(err, registry.ErrInvalidProbeStyle):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// ==================== 响应类型 ====================

// HealthCheckResponse 健康检查响应
type HealthCheckResponse struct {
	ProviderID      uint      `json:"provider_id"`
	Slug            string    `json:"slug"`
	Healthy         bool      `json:"healthy"`
	Running         bool      `json:"running"`
	NotConfigured   bool      `json:"not_configured,omitempty"`
	ResponseTimeMs  int64     `json:"response_time_ms"`
	StatusCode      int       `json:"status_code,omitempty"`
	ModelsAvailable []string  `json:"models_available,omitempty"`
	Error           string    `json:"error,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// AvailableModelsResponse 可用模型列表响应
type AvailableModelsResponse struct {
	ProviderID uint     `json:"provider_id"`
	Slug       string   `json:"slug"`
	Models     []string `json:"models"`
	Count      int      `json:"count"`
}
