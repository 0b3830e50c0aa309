package registry

import (
	"time"

	"github.com/maria-ai/maria-selector/internal/credentials"
	"github.com/maria-ai/maria-selector/internal/models"
)

// CreateProviderRequest 创建供应商请求
type CreateProviderRequest struct {
	Slug              string `json:"slug" binding:"required,max=50"`
	Name              string `json:"name" binding:"required,max=100"`
	Kind              string `json:"kind" binding:"required"`
	BaseURL           string `json:"base_url" binding:"required,url"`
	APIKey            string `json:"api_key"`
	CredentialEnv     string `json:"credential_env"`
	StartCommand      string `json:"start_command"`
	ProbeStyle        string `json:"probe_style"`
	Enabled           *bool  `json:"enabled"`
	PrivacyWeight     *int   `json:"privacy_weight"`
	PerformanceWeight *int   `json:"performance_weight"`
	CostWeight        *int   `json:"cost_weight"`
}

// UpdateProviderRequest 更新供应商请求（所有字段可选）
type UpdateProviderRequest struct {
	Name              *string `json:"name" binding:"omitempty,max=100"`
	BaseURL           *string `json:"base_url" binding:"omitempty,url"`
	APIKey            *string `json:"api_key"`
	CredentialEnv     *string `json:"credential_env"`
	StartCommand      *string `json:"start_command"`
	ProbeStyle        *string `json:"probe_style"`
	Enabled           *bool   `json:"enabled"`
	PrivacyWeight     *int    `json:"privacy_weight"`
	PerformanceWeight *int    `json:"performance_weight"`
	CostWeight        *int    `json:"cost_weight"`
}

// ProviderResponse 供应商响应（凭证脱敏）
type ProviderResponse struct {
	ID                uint       `json:"id"`
	Slug              string     `json:"slug"`
	Name              string     `json:"name"`
	Kind              string     `json:"kind"`
	BaseURL           string     `json:"base_url"`
	APIKey            string     `json:"api_key,omitempty"`
	CredentialEnv     string     `json:"credential_env,omitempty"`
	StartCommand      string     `json:"start_command,omitempty"`
	ProbeStyle        string     `json:"probe_style"`
	Enabled           bool       `json:"enabled"`
	PrivacyWeight     int        `json:"privacy_weight"`
	PerformanceWeight int        `json:"performance_weight"`
	CostWeight        int        `json:"cost_weight"`
	HealthStatus      string     `json:"health_status"`
	LastCheckedAt     *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToProviderResponse 将 Provider 模型转换为响应对象
// APIKey 为明文时脱敏显示，调用方负责在转换前解密
func ToProviderResponse(provider *models.Provider) *ProviderResponse {
	maskedKey := ""
	if provider.APIKey != "" {
		maskedKey = credentials.MaskCredential(provider.APIKey)
	}

	return &ProviderResponse{
		ID:                provider.ID,
		Slug:              provider.Slug,
		Name:              provider.Name,
		Kind:              provider.Kind,
		BaseURL:           provider.BaseURL,
		APIKey:            maskedKey,
		CredentialEnv:     provider.CredentialEnv,
		StartCommand:      provider.StartCommand,
		ProbeStyle:        provider.ProbeStyle,
		Enabled:           provider.Enabled,
		PrivacyWeight:     provider.PrivacyWeight,
		PerformanceWeight: provider.PerformanceWeight,
		CostWeight:        provider.CostWeight,
		HealthStatus:      provider.HealthStatus,
		LastCheckedAt:     provider.LastCheckedAt,
		CreatedAt:         provider.CreatedAt,
		UpdatedAt:         provider.UpdatedAt,
	}
}

// ToProviderResponseList 批量转换
func ToProviderResponseList(providers []*models.Provider) []*ProviderResponse {
	responses := make([]*ProviderResponse, 0, len(providers))
	for _, p := range providers {
		responses = append(responses, ToProviderResponse(p))
	}
	return responses
}

// ProviderListResponse 供应商列表响应（带分页）
type ProviderListResponse struct {
	Data       []*ProviderResponse `json:"data"`
	Pagination PaginationMeta      `json:"pagination"`
}

// PaginationMeta 分页元数据
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
