package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestHandler 创建测试处理器和路由
func setupTestHandler(t *testing.T) (*gin.Engine, *gorm.DB) {
	// 设置 Gin 测试模式
	gin.SetMode(gin.TestMode)

	// 创建测试数据库
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// 自动迁移
	if err := db.AutoMigrate(&models.Provider{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// 创建处理器
	repo := registry.NewRepository(db)
	service := registry.NewService(repo)
	builder := registry.NewDescriptorBuilder(nil, time.Second)
	catalogService := catalog.NewService(nil)
	t.Cleanup(catalogService.Close)
	handler := NewProviderHandler(service, builder, catalogService)

	// 配置路由
	router := gin.New()
	api := router.Group("/api")
	{
		providers := api.Group("/providers")
		{
			providers.POST("", handler.CreateProvider)
			providers.GET("", handler.ListProviders)
			providers.GET("/:id", handler.GetProvider)
			providers.PUT("/:id", handler.UpdateProvider)
			providers.DELETE("/:id", handler.DeleteProvider)
			providers.GET("/:id/health", handler.CheckProviderHealth)
			providers.GET("/:id/models", handler.GetProviderModels)
		}
	}

	return router, db
}

// modelListStub 返回 OpenAI 兼容模型列表的测试服务
func modelListStub(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

// TestCreateProvider_Success 测试成功创建供应商
func TestCreateProvider_Success(t *testing.T) {
	router, _ := setupTestHandler(t)

	reqBody := registry.CreateProviderRequest{
		Slug:    "groq",
		Name:    "Groq",
		Kind:    models.KindCloudAPI,
		BaseURL: "https://api.groq.com/openai",
		APIKey:  "gsk-test-key-12345",
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequest("POST", "/api/providers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response registry.ProviderResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Slug != reqBody.Slug {
		t.Errorf("Expected slug %s, got %s", reqBody.Slug, response.Slug)
	}
	if response.ProbeStyle != models.ProbeStyleOpenAI {
		t.Errorf("Expected default probe style openai, got %s", response.ProbeStyle)
	}
	if !response.Enabled {
		t.Error("Provider should be enabled by default")
	}

	// 验证 API Key 脱敏
	if response.APIKey == reqBody.APIKey {
		t.Error("API Key should be masked in response")
	}
	if response.APIKey != "gsk****2345" {
		t.Errorf("API Key masking incorrect, got %s", response.APIKey)
	}
}

// TestCreateProvider_InvalidJSON 测试无效的 JSON
func TestCreateProvider_InvalidJSON(t *testing.T) {
	router, _ := setupTestHandler(t)

	req, _ := http.NewRequest("POST", "/api/providers", bytes.NewBufferString("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

// TestCreateProvider_ValidationError 测试验证错误
func TestCreateProvider_ValidationError(t *testing.T) {
	router, _ := setupTestHandler(t)

	testCases := []struct {
		name    string
		reqBody registry.CreateProviderRequest
	}{
		{
			name: "empty slug",
			reqBody: registry.CreateProviderRequest{
				Slug:    "",
				Name:    "Test Provider",
				Kind:    models.KindLocalServer,
				BaseURL: "http://localhost:8000",
			},
		},
		{
			name: "invalid kind",
			reqBody: registry.CreateProviderRequest{
				Slug:    "test",
				Name:    "Test Provider",
				Kind:    "mainframe",
				BaseURL: "http://localhost:8000",
			},
		},
		{
			name: "invalid URL",
			reqBody: registry.CreateProviderRequest{
				Slug:    "test",
				Name:    "Test Provider",
				Kind:    models.KindLocalServer,
				BaseURL: "invalid-url",
			},
		},
		{
			name: "trailing slash URL",
			reqBody: registry.CreateProviderRequest{
				Slug:    "test",
				Name:    "Test Provider",
				Kind:    models.KindLocalServer,
				BaseURL: "http://localhost:8000/",
			},
		},
		{
			name: "cloud provider with start command",
			reqBody: registry.CreateProviderRequest{
				Slug:         "test",
				Name:         "Test Provider",
				Kind:         models.KindCloudAPI,
				BaseURL:      "https://api.test.com",
				StartCommand: "test serve",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.reqBody)
			req, _ := http.NewRequest("POST", "/api/providers", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()

			router.ServeHTTP(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.Code)
			}
		})
	}
}

// TestCreateProvider_DuplicateSlug 测试重复标识
func TestCreateProvider_DuplicateSlug(t *testing.T) {
	router, _ := setupTestHandler(t)

	reqBody := registry.CreateProviderRequest{
		Slug:    "ollama",
		Name:    "Ollama",
		Kind:    models.KindLocalServer,
		BaseURL: "http://localhost:11434",
	}
	body, _ := json.Marshal(reqBody)

	// 创建第一个供应商
	req1, _ := http.NewRequest("POST", "/api/providers", bytes.NewBuffer(body))
	req1.Header.Set("Content-Type", "application/json")
	resp1 := httptest.NewRecorder()
	router.ServeHTTP(resp1, req1)

	// 尝试创建同标识供应商
	body, _ = json.Marshal(reqBody)
	req2, _ := http.NewRequest("POST", "/api/providers", bytes.NewBuffer(body))
	req2.Header.Set("Content-Type", "application/json")
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)

	if resp2.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp2.Code)
	}
}

// TestGetProvider_Success 测试成功获取供应商
func TestGetProvider_Success(t *testing.T) {
	router, db := setupTestHandler(t)

	testProvider := &models.Provider{
		Slug:       "vllm",
		Name:       "vLLM",
		Kind:       models.KindLocalServer,
		BaseURL:    "http://localhost:8000",
		ProbeStyle: models.ProbeStyleOpenAI,
		Enabled:    true,
	}
	db.Create(testProvider)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/providers/%d", testProvider.ID), nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var response registry.ProviderResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Slug != testProvider.Slug {
		t.Errorf("Expected slug %s, got %s", testProvider.Slug, response.Slug)
	}
}

// TestGetProvider_NotFound 测试获取不存在的供应商
func TestGetProvider_NotFound(t *testing.T) {
	router, _ := setupTestHandler(t)

	req, _ := http.NewRequest("GET", "/api/providers/9999", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

// TestGetProvider_InvalidID 测试无效的 ID 参数
func TestGetProvider_InvalidID(t *testing.T) {
	router, _ := setupTestHandler(t)

	req, _ := http.NewRequest("GET", "/api/providers/abc", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

// TestListProviders_Pagination 测试分页列表
func TestListProviders_Pagination(t *testing.T) {
	router, db := setupTestHandler(t)

	for i := 1; i <= 15; i++ {
		db.Create(&models.Provider{
			Slug:       fmt.Sprintf("provider-%02d", i),
			Name:       fmt.Sprintf("Provider %d", i),
			Kind:       models.KindLocalServer,
			BaseURL:    fmt.Sprintf("http://localhost:%d", 8000+i),
			ProbeStyle: models.ProbeStyleOpenAI,
			Enabled:    true,
		})
	}

	req, _ := http.NewRequest("GET", "/api/providers?page=2&page_size=10", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var response registry.ProviderListResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Pagination.Total != 15 {
		t.Errorf("Expected total 15, got %d", response.Pagination.Total)
	}
	if response.Pagination.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", response.Pagination.TotalPages)
	}
	if len(response.Data) != 5 {
		t.Errorf("Expected 5 providers on page 2, got %d", len(response.Data))
	}
}

// TestUpdateProvider_Success 测试成功更新供应商
func TestUpdateProvider_Success(t *testing.T) {
	router, db := setupTestHandler(t)

	testProvider := &models.Provider{
		Slug:          "ollama",
		Name:          "Ollama",
		Kind:          models.KindLocalServer,
		BaseURL:       "http://localhost:11434",
		ProbeStyle:    models.ProbeStyleOllama,
		Enabled:       true,
		PrivacyWeight: 3,
	}
	db.Create(testProvider)

	newName := "Ollama Local"
	newWeight := 1
	updateReq := registry.UpdateProviderRequest{
		Name:          &newName,
		PrivacyWeight: &newWeight,
	}
	body, _ := json.Marshal(updateReq)

	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/providers/%d", testProvider.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response registry.ProviderResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Name != newName {
		t.Errorf("Expected name %s, got %s", newName, response.Name)
	}
	if response.PrivacyWeight != newWeight {
		t.Errorf("Expected privacy weight %d, got %d", newWeight, response.PrivacyWeight)
	}
}

// TestDeleteProvider 测试删除供应商
func TestDeleteProvider(t *testing.T) {
	router, db := setupTestHandler(t)

	testProvider := &models.Provider{
		Slug:       "vllm",
		Name:       "vLLM",
		Kind:       models.KindLocalServer,
		BaseURL:    "http://localhost:8000",
		ProbeStyle: models.ProbeStyleOpenAI,
		Enabled:    true,
	}
	db.Create(testProvider)

	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/providers/%d", testProvider.ID), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", resp.Code)
	}

	// 删除后不可见
	req, _ = http.NewRequest("GET", fmt.Sprintf("/api/providers/%d", testProvider.ID), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.Code)
	}

	// 删除不存在的供应商
	req, _ = http.NewRequest("DELETE", "/api/providers/9999", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

// TestCheckProviderHealth_Healthy 测试健康检查（服务在线）
func TestCheckProviderHealth_Healthy(t *testing.T) {
	router, db := setupTestHandler(t)

	server := modelListStub(t, `{"data":[{"id":"llama-3.1-8b-instant"}]}`)

	testProvider := &models.Provider{
		Slug:       "vllm",
		Name:       "vLLM",
		Kind:       models.KindLocalServer,
		BaseURL:    server.URL,
		ProbeStyle: models.ProbeStyleOpenAI,
		Enabled:    true,
	}
	db.Create(testProvider)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/providers/%d/health", testProvider.ID), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var health HealthCheckResponse
	json.Unmarshal(resp.Body.Bytes(), &health)

	if !health.Healthy {
		t.Errorf("Expected healthy=true, got error %q", health.Error)
	}
	if !health.Running {
		t.Error("Expected running=true")
	}
	if len(health.ModelsAvailable) != 1 || health.ModelsAvailable[0] != "llama-3.1-8b-instant" {
		t.Errorf("Unexpected models list: %v", health.ModelsAvailable)
	}

	// 健康结论回写注册表
	var stored models.Provider
	db.First(&stored, testProvider.ID)
	if stored.HealthStatus != models.HealthStatusHealthy {
		t.Errorf("Expected health status written back, got %s", stored.HealthStatus)
	}
}

// TestCheckProviderHealth_NotConfigured 测试未配置凭证的云端供应商
func TestCheckProviderHealth_NotConfigured(t *testing.T) {
	router, db := setupTestHandler(t)

	testProvider := &models.Provider{
		Slug:          "groq",
		Name:          "Groq",
		Kind:          models.KindCloudAPI,
		BaseURL:       "https://api.groq.com/openai",
		CredentialEnv: "HANDLER_TEST_ABSENT_KEY",
		ProbeStyle:    models.ProbeStyleOpenAI,
		Enabled:       true,
	}
	db.Create(testProvider)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/providers/%d/health", testProvider.ID), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var health HealthCheckResponse
	json.Unmarshal(resp.Body.Bytes(), &health)

	if !health.NotConfigured {
		t.Error("Expected not_configured=true")
	}
	if health.Healthy {
		t.Error("Not-configured provider must not be healthy")
	}
}

// TestGetProviderModels 测试获取供应商模型列表
func TestGetProviderModels(t *testing.T) {
	router, db := setupTestHandler(t)

	server := modelListStub(t, `{"data":[{"id":"qwen2.5-7b"},{"id":"llama-3.2-3b"}]}`)

	testProvider := &models.Provider{
		Slug:       "vllm",
		Name:       "vLLM",
		Kind:       models.KindLocalServer,
		BaseURL:    server.URL,
		ProbeStyle: models.ProbeStyleOpenAI,
		Enabled:    true,
	}
	db.Create(testProvider)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/providers/%d/models", testProvider.ID), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response AvailableModelsResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Count != 2 {
		t.Errorf("Expected 2 models, got %d", response.Count)
	}
	if len(response.Models) != 2 || response.Models[0] != "qwen2.5-7b" {
		t.Errorf("Unexpected models: %v", response.Models)
	}
}
