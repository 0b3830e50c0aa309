package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupCatalogTestEnv 创建模型目录测试环境
func setupCatalogTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Provider{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := registry.NewRepository(db)
	builder := registry.NewDescriptorBuilder(nil, time.Second)
	sel := selector.NewSelector(&selector.Config{
		ProbeTimeout: time.Second,
		PollInterval: 10 * time.Millisecond,
		StartTimeout: 50 * time.Millisecond,
	})
	store := selection.NewStore(filepath.Join(t.TempDir(), "selection.json"))
	runner := selection.NewRunner(repo, builder, sel, store)
	catalogService := catalog.NewService(nil)
	t.Cleanup(catalogService.Close)
	handler := NewCatalogHandler(catalogService, runner, selector.ModeAuto)

	router := gin.New()
	router.GET("/api/resolve", handler.ResolveModel)

	return router, db
}

// TestResolveModel_Success 测试成功解析模型归属
func TestResolveModel_Success(t *testing.T) {
	router, db := setupCatalogTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"qwen2.5-7b"},{"id":"llama-3.2-3b"}]}`)
	db.Create(&models.Provider{
		Slug: "vllm", Name: "vLLM", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("GET", "/api/resolve?model=qwen2.5-7b", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var resolution catalog.Resolution
	json.Unmarshal(resp.Body.Bytes(), &resolution)

	if resolution.ProviderID != "vllm" {
		t.Errorf("Expected provider vllm, got %s", resolution.ProviderID)
	}
	if resolution.Model != "qwen2.5-7b" {
		t.Errorf("Expected model qwen2.5-7b, got %s", resolution.Model)
	}
}

// TestResolveModel_CaseInsensitive 模型名比较忽略大小写
func TestResolveModel_CaseInsensitive(t *testing.T) {
	router, db := setupCatalogTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"Qwen2.5-7B"}]}`)
	db.Create(&models.Provider{
		Slug: "lmstudio", Name: "LM Studio", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("GET", "/api/resolve?model=qwen2.5-7b", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var resolution catalog.Resolution
	json.Unmarshal(resp.Body.Bytes(), &resolution)

	// 返回供应商宣告的规范名
	if resolution.Model != "Qwen2.5-7B" {
		t.Errorf("Expected canonical model name, got %s", resolution.Model)
	}
}

// TestResolveModel_MissingModel 测试缺少 model 参数
func TestResolveModel_MissingModel(t *testing.T) {
	router, _ := setupCatalogTestEnv(t)

	req, _ := http.NewRequest("GET", "/api/resolve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)

	errorData := response["error"].(map[string]interface{})
	if errorData["code"] != "MISSING_MODEL" {
		t.Errorf("Expected error code MISSING_MODEL, got %v", errorData["code"])
	}
}

// TestResolveModel_InvalidMode 测试无效模式参数
func TestResolveModel_InvalidMode(t *testing.T) {
	router, _ := setupCatalogTestEnv(t)

	req, _ := http.NewRequest("GET", "/api/resolve?model=qwen2.5-7b&mode=fastest", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)

	errorData := response["error"].(map[string]interface{})
	if errorData["code"] != "INVALID_MODE" {
		t.Errorf("Expected error code INVALID_MODE, got %v", errorData["code"])
	}
}

// TestResolveModel_NotFound 测试无供应商宣告该模型
func TestResolveModel_NotFound(t *testing.T) {
	router, db := setupCatalogTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"qwen2.5-7b"}]}`)
	db.Create(&models.Provider{
		Slug: "vllm", Name: "vLLM", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("GET", "/api/resolve?model=gpt-oss-120b", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)

	errorData := response["error"].(map[string]interface{})
	if errorData["code"] != "MODEL_NOT_FOUND" {
		t.Errorf("Expected error code MODEL_NOT_FOUND, got %v", errorData["code"])
	}
}
