package registry

import (
	"fmt"

	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultProviders 出厂默认的供应商注册表
// 权重为同一模式下的相对顺序，数字越小排位越靠前
func DefaultProviders() []models.Provider {
	return []models.Provider{
		{
			Slug:              "lmstudio",
			Name:              "LM Studio",
			Kind:              models.KindLocalProcess,
			BaseURL:           "http://localhost:1234",
			StartCommand:      "lms server start",
			ProbeStyle:        models.ProbeStyleLMStudio,
			Enabled:           true,
			PrivacyWeight:     1,
			PerformanceWeight: 2,
			CostWeight:        3,
			HealthStatus:      models.HealthStatusUnknown,
		},
		{
			Slug:              "vllm",
			Name:              "vLLM",
			Kind:              models.KindLocalServer,
			BaseURL:           "http://localhost:8000",
			ProbeStyle:        models.ProbeStyleOpenAI,
			Enabled:           true,
			PrivacyWeight:     2,
			PerformanceWeight: 1,
			CostWeight:        4,
			HealthStatus:      models.HealthStatusUnknown,
		},
		{
			Slug:              "ollama",
			Name:              "Ollama",
			Kind:              models.KindLocalServer,
			BaseURL:           "http://localhost:11434",
			StartCommand:      "ollama serve",
			ProbeStyle:        models.ProbeStyleOllama,
			Enabled:           true,
			PrivacyWeight:     3,
			PerformanceWeight: 4,
			CostWeight:        2,
			HealthStatus:      models.HealthStatusUnknown,
		},
		{
			Slug:              "gemini",
			Name:              "Google Gemini",
			Kind:              models.KindCloudAPI,
			BaseURL:           "https://generativelanguage.googleapis.com",
			CredentialEnv:     "GEMINI_API_KEY",
			ProbeStyle:        models.ProbeStyleGemini,
			Enabled:           true,
			PrivacyWeight:     4,
			PerformanceWeight: 5,
			CostWeight:        5,
			HealthStatus:      models.HealthStatusUnknown,
		},
		{
			Slug:              "groq",
			Name:              "Groq",
			Kind:              models.KindCloudAPI,
			BaseURL:           "https://api.groq.com/openai",
			CredentialEnv:     "GROQ_API_KEY",
			ProbeStyle:        models.ProbeStyleOpenAI,
			Enabled:           true,
			PrivacyWeight:     5,
			PerformanceWeight: 3,
			CostWeight:        1,
			HealthStatus:      models.HealthStatusUnknown,
		},
		{
			Slug:              "grok",
			Name:              "xAI Grok",
			Kind:              models.KindCloudAPI,
			BaseURL:           "https://api.x.ai",
			CredentialEnv:     "XAI_API_KEY",
			ProbeStyle:        models.ProbeStyleOpenAI,
			Enabled:           true,
			PrivacyWeight:     6,
			PerformanceWeight: 6,
			CostWeight:        6,
			HealthStatus:      models.HealthStatusUnknown,
		},
	}
}

// SeedDefaults 注册表为空时写入默认供应商
// 已有任何条目时不做任何事，用户的增删改不会被覆盖
func SeedDefaults(db *gorm.DB) error {
	repo := NewRepository(db)

	count, err := repo.Count()
	if err != nil {
		return fmt.Errorf("统计注册表失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := DefaultProviders()
	for i := range defaults {
		if err := repo.Create(&defaults[i]); err != nil {
			return fmt.Errorf("写入默认供应商 %s 失败: %w", defaults[i].Slug, err)
		}
	}

	logrus.WithField("count", len(defaults)).Info("📦 已写入默认供应商注册表")
	return nil
}
