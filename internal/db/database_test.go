package db

import (
	"testing"
	"time"

	"github.com/maria-ai/maria-selector/internal/config"
	"github.com/maria-ai/maria-selector/internal/models"
	"gorm.io/gorm"
)

// setupTestDB 创建测试用内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	cfg := &config.DatabaseConfig{
		Path:            ":memory:",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}

	db, err := InitDatabase(cfg)
	if err != nil {
		t.Fatalf("初始化测试数据库失败: %v", err)
	}

	// 自动迁移
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

// TestInitDatabase 测试数据库初始化
func TestInitDatabase(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Path:            ":memory:",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}

	db, err := InitDatabase(cfg)
	if err != nil {
		t.Errorf("初始化数据库失败: %v", err)
	}

	if db == nil {
		t.Error("数据库连接为 nil")
	}

	// 验证连接池配置
	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("获取 SQL DB 失败: %v", err)
	}

	stats := sqlDB.Stats()
	if stats.MaxOpenConnections != 10 {
		t.Errorf("最大连接数配置错误: got %d, want 10", stats.MaxOpenConnections)
	}
}

// TestAutoMigrate 测试自动迁移
func TestAutoMigrate(t *testing.T) {
	db := setupTestDB(t)

	// 验证表是否存在
	tables := []interface{}{
		&models.Provider{},
		&models.Token{},
		&models.SystemEvent{},
	}

	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			t.Errorf("表 %T 不存在", table)
		}
	}
}

// TestProviderCRUD 测试 Provider CRUD 操作
func TestProviderCRUD(t *testing.T) {
	db := setupTestDB(t)

	// Create
	provider := &models.Provider{
		Slug:          "ollama",
		Name:          "Ollama",
		Kind:          models.KindLocalServer,
		BaseURL:       "http://localhost:11434",
		StartCommand:  "ollama serve",
		Enabled:       true,
		PrivacyWeight: 3,
		HealthStatus:  models.HealthStatusUnknown,
	}

	result := db.Create(provider)
	if result.Error != nil {
		t.Fatalf("创建 Provider 失败: %v", result.Error)
	}

	if provider.ID == 0 {
		t.Error("Provider ID 未自动生成")
	}

	// Read
	var found models.Provider
	result = db.First(&found, provider.ID)
	if result.Error != nil {
		t.Fatalf("查询 Provider 失败: %v", result.Error)
	}

	if found.Slug != "ollama" {
		t.Errorf("Provider 标识不匹配: got %s, want ollama", found.Slug)
	}

	if !found.IsLocal() {
		t.Error("local-server 类型应判定为本地供应商")
	}

	// Update
	found.HealthStatus = models.HealthStatusHealthy
	result = db.Save(&found)
	if result.Error != nil {
		t.Fatalf("更新 Provider 失败: %v", result.Error)
	}

	var updated models.Provider
	db.First(&updated, provider.ID)
	if updated.HealthStatus != models.HealthStatusHealthy {
		t.Errorf("Provider 健康状态未更新: got %s, want healthy", updated.HealthStatus)
	}

	// Delete
	result = db.Delete(&found)
	if result.Error != nil {
		t.Fatalf("删除 Provider 失败: %v", result.Error)
	}

	var deleted models.Provider
	result = db.First(&deleted, provider.ID)
	if result.Error == nil {
		t.Error("Provider 未被删除")
	}
}

// TestProviderSlugUnique 测试 Provider 标识唯一约束
func TestProviderSlugUnique(t *testing.T) {
	db := setupTestDB(t)

	first := &models.Provider{
		Slug:    "groq",
		Name:    "Groq",
		Kind:    models.KindCloudAPI,
		BaseURL: "https://api.groq.com/openai",
	}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("创建 Provider 失败: %v", err)
	}

	duplicate := &models.Provider{
		Slug:    "groq", // 相同的标识
		Name:    "Groq Clone",
		Kind:    models.KindCloudAPI,
		BaseURL: "https://api.groq.com/openai",
	}

	if err := db.Create(duplicate).Error; err == nil {
		t.Error("唯一约束未生效: 允许创建重复的 Slug")
	}
}

// TestTokenCRUD 测试 Token CRUD 操作
func TestTokenCRUD(t *testing.T) {
	db := setupTestDB(t)

	// Create
	expiresAt := time.Now().Add(24 * time.Hour)
	token := &models.Token{
		Name:      "Test Token",
		Token:     "sk-test1234567890",
		Enabled:   true,
		ExpiresAt: &expiresAt,
	}

	result := db.Create(token)
	if result.Error != nil {
		t.Fatalf("创建 Token 失败: %v", result.Error)
	}

	// Read
	var found models.Token
	result = db.First(&found, token.ID)
	if result.Error != nil {
		t.Fatalf("查询 Token 失败: %v", result.Error)
	}

	if found.Token != "sk-test1234567890" {
		t.Errorf("Token 不匹配: got %s, want sk-test1234567890", found.Token)
	}

	// 测试唯一约束
	duplicate := &models.Token{
		Name:    "Duplicate Token",
		Token:   "sk-test1234567890", // 相同的 token
		Enabled: true,
	}

	result = db.Create(duplicate)
	if result.Error == nil {
		t.Error("唯一约束未生效: 允许创建重复的 Token")
	}
}

// TestSystemEventInsert 测试事件写入与按时间排序查询
func TestSystemEventInsert(t *testing.T) {
	db := setupTestDB(t)

	events := []models.SystemEvent{
		{Type: models.EventTypeSelectionRun, Message: "selection finished", Level: models.EventLevelInfo},
		{Type: models.EventTypeStartFailed, Message: "ollama start timeout", Level: models.EventLevelError},
	}

	for i := range events {
		if err := db.Create(&events[i]).Error; err != nil {
			t.Fatalf("创建 SystemEvent 失败: %v", err)
		}
	}

	var count int64
	db.Model(&models.SystemEvent{}).Count(&count)
	if count != 2 {
		t.Errorf("事件数量不匹配: got %d, want 2", count)
	}
}
