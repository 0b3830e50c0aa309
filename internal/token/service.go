package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/maria-ai/maria-selector/internal/models"
)

var (
	// ErrInvalidToken Token 无效
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired Token 已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenDisabled Token 已禁用
	ErrTokenDisabled = errors.New("token disabled")
	// ErrInvalidName Token 名称不能为空
	ErrInvalidName = errors.New("token name is required")
	// ErrInvalidExpiresAt 过期时间必须是未来时间
	ErrInvalidExpiresAt = errors.New("expires_at must be in the future")
	// ErrInvalidCustomToken 自定义 Token 格式无效
	ErrInvalidCustomToken = errors.New("custom token must start with 'sk-' and be at least 8 characters")
)

// Service Token 业务逻辑层
type Service struct {
	repo *Repository
}

// NewService 创建 Service 实例
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GenerateTokenValue 生成唯一的 Token 值
// 格式: sk- + 32 字节 base64 编码 (URLEncoding)
func GenerateTokenValue() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "sk-" + base64.URLEncoding.EncodeToString(bytes), nil
}

// ValidateCustomToken 验证自定义 Token 格式
func ValidateCustomToken(token string) error {
	if len(token) < 8 || !strings.HasPrefix(token, "sk-") {
		return ErrInvalidCustomToken
	}
	return nil
}

// CreateToken 创建 Token
// 未提供自定义值时自动生成，生成冲突时重试
func (s *Service) CreateToken(req *CreateTokenRequest) (*models.Token, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidExpiresAt
	}

	tokenValue, err := s.resolveTokenValue(req.Token)
	if err != nil {
		return nil, err
	}

	token := &models.Token{
		Name:      name,
		Token:     tokenValue,
		Enabled:   true,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.repo.Create(token); err != nil {
		return nil, err
	}
	return token, nil
}

// resolveTokenValue 确定最终的 Token 值
func (s *Service) resolveTokenValue(customToken string) (string, error) {
	if customToken != "" {
		if err := ValidateCustomToken(customToken); err != nil {
			return "", err
		}
		exists, err := s.repo.CheckValueExists(customToken)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrTokenValueExists
		}
		return customToken, nil
	}

	// 随机生成，冲突时重试
	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		tokenValue, err := GenerateTokenValue()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.CheckValueExists(tokenValue)
		if err != nil {
			return "", err
		}
		if !exists {
			return tokenValue, nil
		}
	}
	return "", ErrTokenValueExists
}

// ListTokens 获取所有 Token 列表
func (s *Service) ListTokens() ([]*models.Token, error) {
	return s.repo.FindAll()
}

// GetToken 根据 ID 获取 Token
func (s *Service) GetToken(id uint) (*models.Token, error) {
	return s.repo.FindByID(id)
}

// DeleteToken 删除 Token
func (s *Service) DeleteToken(id uint) error {
	return s.repo.Delete(id)
}

// ValidateToken 验证 Token (用于认证中间件)
// 检查 Token 是否存在、是否启用、是否过期
func (s *Service) ValidateToken(tokenValue string) (*models.Token, error) {
	token, err := s.repo.FindByValue(tokenValue)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !token.Enabled {
		return nil, ErrTokenDisabled
	}
	if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	// 最近使用时间是尽力而为的元数据，更新失败不影响认证
	_ = s.repo.TouchLastUsed(token.ID)

	return token, nil
}

// MaskToken 脱敏显示 Token
// 格式: sk-****{最后4位}
func MaskToken(token string) string {
	if len(token) < 8 {
		return "****"
	}
	return "sk-****" + token[len(token)-4:]
}
