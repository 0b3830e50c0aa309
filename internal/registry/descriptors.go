package registry

import (
	"fmt"
	"os"
	"time"

	"github.com/maria-ai/maria-selector/internal/credentials"
	"github.com/maria-ai/maria-selector/internal/launcher"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/probe"
	"github.com/maria-ai/maria-selector/internal/selector"
)

// DescriptorBuilder 把注册表行装配成选择器候选描述
// 凭证解析次序：环境变量优先，其次数据库里的加密存储；
// 两者都拿不到可用值的云端供应商标记为未配置，选择时不发起网络调用
type DescriptorBuilder struct {
	encryptionKey []byte
	probeTimeout  time.Duration
}

// NewDescriptorBuilder 创建装配器
func NewDescriptorBuilder(encryptionKey []byte, probeTimeout time.Duration) *DescriptorBuilder {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &DescriptorBuilder{
		encryptionKey: encryptionKey,
		probeTimeout:  probeTimeout,
	}
}

// Build 装配候选描述，禁用的供应商被跳过
func (b *DescriptorBuilder) Build(providers []*models.Provider) []selector.ProviderDescriptor {
	descriptors := make([]selector.ProviderDescriptor, 0, len(providers))

	for _, p := range providers {
		if !p.Enabled {
			continue
		}

		d := selector.ProviderDescriptor{
			ID:   p.Slug,
			Kind: selector.Kind(p.Kind),
			Weights: selector.Weights{
				Privacy:     p.PrivacyWeight,
				Performance: p.PerformanceWeight,
				Cost:        p.CostWeight,
			},
		}

		apiKey, reason := b.resolveCredential(p)
		if p.Kind == models.KindCloudAPI && apiKey == "" {
			d.NotConfigured = true
			d.NotConfiguredReason = reason
		}

		d.Prober = b.buildProber(p, apiKey)

		if p.IsLocal() && p.StartCommand != "" {
			d.Starter = launcher.NewCommandStarter(p.StartCommand)
		}

		descriptors = append(descriptors, d)
	}

	return descriptors
}

// resolveCredential 解析供应商凭证
// 返回可用凭证，或凭证不可用的原因
func (b *DescriptorBuilder) resolveCredential(p *models.Provider) (string, string) {
	if p.CredentialEnv != "" {
		if value := os.Getenv(p.CredentialEnv); !credentials.IsPlaceholder(value) {
			return value, ""
		}
	}

	if p.APIKey != "" {
		stored := p.APIKey
		if b.encryptionKey != nil {
			decrypted, err := credentials.DecryptCredential(stored, b.encryptionKey)
			if err != nil {
				return "", fmt.Sprintf("凭证解密失败: %v", err)
			}
			stored = decrypted
		}
		if !credentials.IsPlaceholder(stored) {
			return stored, ""
		}
	}

	if p.CredentialEnv != "" {
		return "", fmt.Sprintf("缺少环境变量 %s", p.CredentialEnv)
	}
	return "", "未配置凭证"
}

// buildProber 按探测形态装配探测器
func (b *DescriptorBuilder) buildProber(p *models.Provider, apiKey string) probe.Prober {
	switch p.ProbeStyle {
	case models.ProbeStyleLMStudio:
		return probe.NewLMStudioProber(p.BaseURL, b.probeTimeout)
	case models.ProbeStyleOllama:
		return probe.NewOllamaProber(p.BaseURL, b.probeTimeout)
	case models.ProbeStyleGemini:
		return probe.NewGeminiProber(p.BaseURL, apiKey, b.probeTimeout)
	default:
		return probe.NewOpenAIProber(p.BaseURL, apiKey, b.probeTimeout)
	}
}
