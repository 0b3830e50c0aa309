package models

import "time"

// Token 服务模式访问令牌
// serve 模式下管理接口的访问凭证
type Token struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	Token      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"token"`
	Enabled    bool       `gorm:"default:true;not null" json:"enabled"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"` // 最近一次通过认证的时间
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Token) TableName() string {
	return "tokens"
}
