package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSelectionTestEnv 创建选择运行测试环境
// 探测与轮询超时调小，失败路径不拖慢测试
func setupSelectionTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
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
	handler := NewSelectionHandler(runner, store, selector.ModeAuto, time.Minute)

	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/select", handler.RunSelection)
		api.GET("/selection/latest", handler.GetLatest)
	}

	return router, db
}

// TestRunSelection_NoBody 测试无请求体时使用默认模式
func TestRunSelection_NoBody(t *testing.T) {
	router, db := setupSelectionTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"qwen2.5-7b"}]}`)
	db.Create(&models.Provider{
		Slug: "vllm", Name: "vLLM", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("POST", "/api/select", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result selector.SelectionResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.Mode != selector.ModeAuto {
		t.Errorf("Expected default mode auto, got %s", result.Mode)
	}
	if result.ChosenProviderID != "vllm" {
		t.Errorf("Expected chosen provider vllm, got %s", result.ChosenProviderID)
	}
	if result.RunID == "" {
		t.Error("Expected run_id to be set")
	}
}

// TestRunSelection_WithMode 测试显式指定模式
func TestRunSelection_WithMode(t *testing.T) {
	router, db := setupSelectionTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"llama-3.2-3b"}]}`)
	db.Create(&models.Provider{
		Slug: "ollama", Name: "Ollama", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	body, _ := json.Marshal(SelectRequest{Mode: "privacy-first"})
	req, _ := http.NewRequest("POST", "/api/select", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result selector.SelectionResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.Mode != selector.ModePrivacyFirst {
		t.Errorf("Expected mode privacy-first, got %s", result.Mode)
	}
}

// TestRunSelection_InvalidMode 测试无效模式
func TestRunSelection_InvalidMode(t *testing.T) {
	router, _ := setupSelectionTestEnv(t)

	body, _ := json.Marshal(SelectRequest{Mode: "fastest"})
	req, _ := http.NewRequest("POST", "/api/select", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
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

// TestRunSelection_EmptyRegistry 测试注册表为空
func TestRunSelection_EmptyRegistry(t *testing.T) {
	router, _ := setupSelectionTestEnv(t)

	req, _ := http.NewRequest("POST", "/api/select", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)

	errorData := response["error"].(map[string]interface{})
	if errorData["code"] != "EMPTY_REGISTRY" {
		t.Errorf("Expected error code EMPTY_REGISTRY, got %v", errorData["code"])
	}
}

// TestRunSelection_NoProviderAvailable 全部落空不是 HTTP 错误
func TestRunSelection_NoProviderAvailable(t *testing.T) {
	router, db := setupSelectionTestEnv(t)

	// 云端供应商无凭证，未配置即落空
	db.Create(&models.Provider{
		Slug: "groq", Name: "Groq", Kind: models.KindCloudAPI,
		BaseURL: "https://api.groq.com/openai", CredentialEnv: "SELECTION_TEST_ABSENT_KEY",
		ProbeStyle: models.ProbeStyleOpenAI,
		Enabled:    true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("POST", "/api/select", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result selector.SelectionResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if !result.NoProviderAvailable {
		t.Error("Expected no_provider_available=true")
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("Expected 1 attempt, got %d", len(result.Attempts))
	}
	if result.Attempts[0].FailureType != selector.FailureNotConfigured {
		t.Errorf("Expected failure type not_configured, got %s", result.Attempts[0].FailureType)
	}
}

// TestGetLatest_NoSelection 测试尚无持久化结果
func TestGetLatest_NoSelection(t *testing.T) {
	router, _ := setupSelectionTestEnv(t)

	req, _ := http.NewRequest("GET", "/api/selection/latest", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &response)

	errorData := response["error"].(map[string]interface{})
	if errorData["code"] != "NO_SELECTION" {
		t.Errorf("Expected error code NO_SELECTION, got %v", errorData["code"])
	}
}

// TestGetLatest_AfterRun 运行之后能读到新鲜结果
func TestGetLatest_AfterRun(t *testing.T) {
	router, db := setupSelectionTestEnv(t)

	server := modelListStub(t, `{"data":[{"id":"qwen2.5-7b"}]}`)
	db.Create(&models.Provider{
		Slug: "vllm", Name: "vLLM", Kind: models.KindLocalServer,
		BaseURL: server.URL, ProbeStyle: models.ProbeStyleOpenAI,
		Enabled: true, PrivacyWeight: 1, PerformanceWeight: 1, CostWeight: 1,
	})

	req, _ := http.NewRequest("POST", "/api/select", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("selection run failed: %d", resp.Code)
	}

	var runResult selector.SelectionResult
	json.Unmarshal(resp.Body.Bytes(), &runResult)

	req, _ = http.NewRequest("GET", "/api/selection/latest", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var latest LatestSelectionResponse
	json.Unmarshal(resp.Body.Bytes(), &latest)

	if latest.Result == nil || latest.Result.RunID != runResult.RunID {
		t.Error("Latest result should match the run just executed")
	}
	if !latest.Fresh {
		t.Error("Result should be fresh within the window")
	}
}
