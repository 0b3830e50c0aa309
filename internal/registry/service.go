package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/maria-ai/maria-selector/internal/credentials"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidInput 无效输入
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidURL 无效 URL
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInvalidKind 无效供应商类型
	ErrInvalidKind = errors.New("invalid provider kind")
	// ErrInvalidProbeStyle 无效探测形态
	ErrInvalidProbeStyle = errors.New("invalid probe style")
)

// defaultWeight 未指定权重时的排序兜底值，足够大以排在显式配置之后
const defaultWeight = 100

// EventSink 注册表变更事件落库，events.Service 满足该接口
type EventSink interface {
	LogInfo(eventType, message string, metadata map[string]interface{}) error
}

// Service 供应商注册表业务逻辑层
type Service struct {
	repo          *Repository
	encryptionKey []byte
	events        EventSink // 可为 nil
}

// NewService 创建 Service 实例
func NewService(repo *Repository) *Service {
	return &Service{
		repo:          repo,
		encryptionKey: nil,
	}
}

// NewServiceWithEncryption 创建带加密密钥的 Service 实例
func NewServiceWithEncryption(repo *Repository, encryptionKey []byte) *Service {
	return &Service{
		repo:          repo,
		encryptionKey: encryptionKey,
	}
}

// WithEvents 挂接变更事件落库
func (s *Service) WithEvents(sink EventSink) *Service {
	s.events = sink
	return s
}

// logChange 变更事件尽力而为，失败不影响操作结论
func (s *Service) logChange(eventType, slug string, id uint) {
	if s.events == nil {
		return
	}
	err := s.events.LogInfo(eventType, fmt.Sprintf("%s: %s", eventType, slug), map[string]interface{}{
		"provider_id": id,
		"slug":        slug,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"event": eventType,
			"error": err,
		}).Warn("⚠️ 注册表变更事件记录失败")
	}
}

// CreateProvider 创建供应商
func (s *Service) CreateProvider(req CreateProviderRequest) (*models.Provider, error) {
	// 验证参数
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	// 检查标识是否已存在
	exists, err := s.repo.CheckSlugExists(req.Slug, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProviderSlugExists
	}

	provider := &models.Provider{
		Slug:          strings.TrimSpace(req.Slug),
		Name:          strings.TrimSpace(req.Name),
		Kind:          req.Kind,
		BaseURL:       req.BaseURL,
		APIKey:        req.APIKey,
		CredentialEnv: req.CredentialEnv,
		StartCommand:  req.StartCommand,
		ProbeStyle:    req.ProbeStyle,
		HealthStatus:  models.HealthStatusUnknown,
	}

	// 应用默认值
	if provider.ProbeStyle == "" {
		provider.ProbeStyle = models.ProbeStyleOpenAI
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	} else {
		provider.Enabled = true
	}
	provider.PrivacyWeight = weightOrDefault(req.PrivacyWeight)
	provider.PerformanceWeight = weightOrDefault(req.PerformanceWeight)
	provider.CostWeight = weightOrDefault(req.CostWeight)

	// 加密 API Key（如果配置了加密密钥）
	plaintextKey := provider.APIKey
	if s.encryptionKey != nil && provider.APIKey != "" {
		encryptedKey, err := credentials.EncryptCredential(provider.APIKey, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt API key: %w", err)
		}
		provider.APIKey = encryptedKey
	}

	if err := s.repo.Create(provider); err != nil {
		return nil, err
	}

	// 返回前恢复明文 API Key，脱敏由 DTO 转换负责
	provider.APIKey = plaintextKey

	s.logChange(models.EventTypeProviderAdded, provider.Slug, provider.ID)

	return provider, nil
}

// GetProvider 获取单个供应商，存储的凭证返回前解密
func (s *Service) GetProvider(id uint) (*models.Provider, error) {
	provider, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.decryptKey(provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// GetProviderBySlug 按标识获取供应商
func (s *Service) GetProviderBySlug(slug string) (*models.Provider, error) {
	provider, err := s.repo.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if err := s.decryptKey(provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders 获取供应商列表（分页）
func (s *Service) ListProviders(page, pageSize int) ([]*models.Provider, int64, error) {
	// 参数验证
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	return s.repo.FindAll(page, pageSize)
}

// ListEnabledProviders 获取所有启用的供应商
func (s *Service) ListEnabledProviders() ([]*models.Provider, error) {
	return s.repo.FindEnabled()
}

// UpdateProvider 更新供应商
func (s *Service) UpdateProvider(id uint, req UpdateProviderRequest) (*models.Provider, error) {
	// 验证参数
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	provider, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		provider.Name = strings.TrimSpace(*req.Name)
	}
	if req.BaseURL != nil {
		provider.BaseURL = *req.BaseURL
	}
	if req.CredentialEnv != nil {
		provider.CredentialEnv = *req.CredentialEnv
	}
	if req.StartCommand != nil {
		provider.StartCommand = *req.StartCommand
	}
	if req.ProbeStyle != nil {
		provider.ProbeStyle = *req.ProbeStyle
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}
	if req.PrivacyWeight != nil {
		provider.PrivacyWeight = *req.PrivacyWeight
	}
	if req.PerformanceWeight != nil {
		provider.PerformanceWeight = *req.PerformanceWeight
	}
	if req.CostWeight != nil {
		provider.CostWeight = *req.CostWeight
	}

	var plaintextKey string
	if req.APIKey != nil {
		plaintextKey = *req.APIKey
		if s.encryptionKey != nil && *req.APIKey != "" {
			encryptedKey, err := credentials.EncryptCredential(*req.APIKey, s.encryptionKey)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt API key: %w", err)
			}
			provider.APIKey = encryptedKey
		} else {
			provider.APIKey = *req.APIKey
		}
	}

	if err := s.repo.Update(provider); err != nil {
		return nil, err
	}

	// 返回前恢复/解密 API Key
	if req.APIKey != nil {
		provider.APIKey = plaintextKey
	} else if err := s.decryptKey(provider); err != nil {
		return nil, err
	}

	s.logChange(models.EventTypeProviderUpdated, provider.Slug, provider.ID)

	return provider, nil
}

// DeleteProvider 删除供应商
func (s *Service) DeleteProvider(id uint) error {
	provider, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logChange(models.EventTypeProviderDeleted, provider.Slug, id)
	return nil
}

// UpdateProviderHealthStatus 更新供应商健康状态
func (s *Service) UpdateProviderHealthStatus(id uint, healthStatus string) error {
	return s.repo.UpdateHealthStatus(id, healthStatus)
}

// decryptKey 解密存储的凭证，未配置加密密钥时原样保留
func (s *Service) decryptKey(provider *models.Provider) error {
	if s.encryptionKey == nil || provider.APIKey == "" {
		return nil
	}
	decrypted, err := credentials.DecryptCredential(provider.APIKey, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decrypt API key: %w", err)
	}
	provider.APIKey = decrypted
	return nil
}

// ==================== 参数验证 ====================

func (s *Service) validateCreateRequest(req CreateProviderRequest) error {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidInput)
	}
	if strings.ContainsAny(slug, " \t/") {
		return fmt.Errorf("%w: slug must not contain spaces or slashes", ErrInvalidInput)
	}

	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if err := validateKind(req.Kind); err != nil {
		return err
	}

	if err := validateURL(req.BaseURL); err != nil {
		return err
	}

	if req.ProbeStyle != "" {
		if err := validateProbeStyle(req.ProbeStyle); err != nil {
			return err
		}
	}

	// 启动命令只对本地供应商有意义
	if req.StartCommand != "" && req.Kind == models.KindCloudAPI {
		return fmt.Errorf("%w: cloud providers cannot have a start command", ErrInvalidInput)
	}

	return nil
}

func (s *Service) validateUpdateRequest(req UpdateProviderRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	if req.BaseURL != nil {
		if err := validateURL(*req.BaseURL); err != nil {
			return err
		}
	}

	if req.ProbeStyle != nil {
		if err := validateProbeStyle(*req.ProbeStyle); err != nil {
			return err
		}
	}

	return nil
}

// validateKind 验证供应商类型
func validateKind(kind string) error {
	switch kind {
	case models.KindLocalProcess, models.KindLocalServer, models.KindCloudAPI:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// validateProbeStyle 验证探测形态
func validateProbeStyle(style string) error {
	switch style {
	case models.ProbeStyleOpenAI, models.ProbeStyleLMStudio, models.ProbeStyleOllama, models.ProbeStyleGemini:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProbeStyle, style)
	}
}

// validateURL 验证 URL 格式
// 允许带路径前缀，groq 等供应商的 OpenAI 兼容端点挂在子路径下
func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	// 必须是 HTTP 或 HTTPS
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: URL must be http or https", ErrInvalidURL)
	}

	// 必须有 host
	if parsedURL.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	// URL 不应以 / 结尾
	if strings.HasSuffix(urlStr, "/") {
		return fmt.Errorf("%w: base_url should not end with /", ErrInvalidURL)
	}

	return nil
}

func weightOrDefault(w *int) int {
	if w != nil {
		return *w
	}
	return defaultWeight
}
