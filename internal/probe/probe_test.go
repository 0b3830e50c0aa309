package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPProber_Probe_Healthy(t *testing.T) {
	// 创建模拟服务器
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 验证请求方法和路径
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/v1/models", r.URL.Path)

		// 验证认证头
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		// 留出可测量的响应时间
		time.Sleep(10 * time.Millisecond)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data": [{"id": "llama-3.1-8b-instant"}, {"id": "mixtral-8x7b"}]}`))
	}))
	defer server.Close()

	prober := NewOpenAIProber(server.URL, "test-api-key", 5*time.Second)
	status := prober.ProbeSimple()

	assert.True(t, status.Running)
	assert.True(t, status.Healthy)
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Equal(t, []string{"llama-3.1-8b-instant", "mixtral-8x7b"}, status.ModelsAvailable)
	assert.Greater(t, status.ResponseTimeMs, int64(0))
	assert.Empty(t, status.Error)
}

func TestHTTPProber_Probe_Unauthorized(t *testing.T) {
	// 创建返回 401 的模拟服务器
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	prober := NewOpenAIProber(server.URL, "invalid-key", 5*time.Second)
	status := prober.ProbeSimple()

	// 收到响应说明服务在运行，但功能检查不通过
	assert.True(t, status.Running)
	assert.False(t, status.Healthy)
	assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
	assert.Equal(t, "HTTP 401", status.Error)
}

func TestHTTPProber_Probe_ConnectionRefused(t *testing.T) {
	// 先关闭服务器制造连接拒绝
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	prober := NewOpenAIProber(url, "", 2*time.Second)
	status := prober.ProbeSimple()

	assert.False(t, status.Running)
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)
}

func TestHTTPProber_Probe_Timeout(t *testing.T) {
	// 创建慢响应的模拟服务器
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// 使用短超时
	prober := NewOpenAIProber(server.URL, "", 200*time.Millisecond)
	status := prober.ProbeSimple()

	assert.False(t, status.Running)
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)
}

func TestHTTPProber_Probe_MalformedBody(t *testing.T) {
	// 端口开放但返回无法解析的内容，只算 Running 不算 Healthy
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	prober := NewOpenAIProber(server.URL, "", 5*time.Second)
	status := prober.ProbeSimple()

	assert.True(t, status.Running, "got an HTTP response, so the server is running")
	assert.False(t, status.Healthy, "functional check must fail on malformed body")
	assert.NotEmpty(t, status.Error)
}

func TestNewOllamaProber_Endpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		// Ollama 不需要认证头
		assert.Empty(t, r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"models": [{"name": "llama3:latest"}]}`))
	}))
	defer server.Close()

	prober := NewOllamaProber(server.URL, 5*time.Second)
	status := prober.ProbeSimple()

	assert.True(t, status.Healthy)
	assert.Equal(t, []string{"llama3:latest"}, status.ModelsAvailable)
}

func TestNewLMStudioProber_Endpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/models", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data": [{"id": "qwen2.5-7b-instruct", "type": "llm", "state": "loaded"}]}`))
	}))
	defer server.Close()

	prober := NewLMStudioProber(server.URL, 5*time.Second)
	status := prober.ProbeSimple()

	assert.True(t, status.Healthy)
	assert.Equal(t, []string{"qwen2.5-7b-instruct"}, status.ModelsAvailable)
}

func TestNewGeminiProber_Endpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		// Gemini 通过查询参数认证
		assert.Equal(t, "test-gemini-key", r.URL.Query().Get("key"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"models": [{"name": "models/gemini-2.0-flash", "supportedGenerationMethods": ["generateContent"]}]}`))
	}))
	defer server.Close()

	prober := NewGeminiProber(server.URL, "test-gemini-key", 5*time.Second)
	status := prober.ProbeSimple()

	assert.True(t, status.Healthy)
	assert.Equal(t, []string{"gemini-2.0-flash"}, status.ModelsAvailable)
}

func TestProberFunc(t *testing.T) {
	// 函数式探测器直接透传结果，供选择器测试注入
	called := 0
	f := Func(func(_ context.Context) Status {
		called++
		return Status{Running: true, Healthy: true}
	})

	status := f.Probe(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, called)
}
