package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// userAgent 探测请求的 User-Agent
const userAgent = "MARIA-Selector/1.0"

// Status 单次探测结果
// 探测失败不返回 error，诊断信息记录在 Error 字段中
type Status struct {
	Running         bool      `json:"running"`                    // 进程/服务可达（收到任意 HTTP 响应）
	Healthy         bool      `json:"healthy"`                    // 功能探测通过（2xx 且模型列表可解析）
	ModelsAvailable []string  `json:"models_available,omitempty"` // 可用模型标识，保持服务端返回顺序
	ResponseTimeMs  int64     `json:"response_time_ms"`
	StatusCode      int       `json:"status_code,omitempty"`
	Error           string    `json:"error,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Prober 供应商探测器
// Probe 不产生副作用，永不 panic，失败信息落在 Status.Error
type Prober interface {
	Probe(ctx context.Context) Status
}

// Func 函数式探测器，便于测试注入
type Func func(ctx context.Context) Status

func (f Func) Probe(ctx context.Context) Status {
	return f(ctx)
}

// HTTPProber 基于模型列表端点的 HTTP 探测器
// 各供应商的差异由端点路径、认证头与响应解析函数承担
type HTTPProber struct {
	client   *http.Client
	endpoint string
	headers  map[string]string
	parse    ParseFunc
	timeout  time.Duration
}

// NewHTTPProber 创建探测器
func NewHTTPProber(endpoint string, headers map[string]string, parse ParseFunc, timeout time.Duration) *HTTPProber {
	if timeout == 0 {
		timeout = 5 * time.Second // 默认 5 秒超时
	}

	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		headers:  headers,
		parse:    parse,
		timeout:  timeout,
	}
}

// Probe 执行一次探测
// 收到任意 HTTP 响应即视为 Running；2xx 且模型列表可解析才视为 Healthy，
// 端口开放但功能检查失败的服务因此只算 Running
func (p *HTTPProber) Probe(ctx context.Context) Status {
	startTime := time.Now()
	status := Status{
		CheckedAt: startTime,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		status.Error = fmt.Sprintf("创建请求失败: %v", err)
		return status
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("请求失败: %v", err)
		status.ResponseTimeMs = time.Since(startTime).Milliseconds()
		return status
	}
	defer resp.Body.Close()

	status.ResponseTimeMs = time.Since(startTime).Milliseconds()
	status.StatusCode = resp.StatusCode
	status.Running = true

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}

	models, err := p.parse(resp.Body)
	if err != nil {
		status.Error = fmt.Sprintf("解析响应失败: %v", err)
		return status
	}

	status.Healthy = true
	status.ModelsAvailable = models
	return status
}

// ProbeSimple 简化探测（不需要 context）
func (p *HTTPProber) ProbeSimple() Status {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.Probe(ctx)
}

// ==================== 各供应商探测器 ====================

// 模型列表端点路径
const (
	openAIModelsPath   = "/v1/models"
	lmStudioModelsPath = "/api/v0/models"
	ollamaTagsPath     = "/api/tags"
	geminiModelsPath   = "/v1beta/models"
)

// NewOpenAIProber OpenAI 兼容端点探测器（vLLM、Groq、Grok 等）
// apiKey 为空时不携带认证头（本地 vLLM 不需要）
func NewOpenAIProber(baseURL, apiKey string, timeout time.Duration) *HTTPProber {
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	endpoint := strings.TrimRight(baseURL, "/") + openAIModelsPath
	return NewHTTPProber(endpoint, headers, ParseOpenAIModels, timeout)
}

// NewLMStudioProber LM Studio 原生端点探测器
// /api/v0/models 比 OpenAI 兼容端点多返回加载状态等字段
func NewLMStudioProber(baseURL string, timeout time.Duration) *HTTPProber {
	endpoint := strings.TrimRight(baseURL, "/") + lmStudioModelsPath
	return NewHTTPProber(endpoint, nil, ParseLMStudioModels, timeout)
}

// NewOllamaProber Ollama 探测器
func NewOllamaProber(baseURL string, timeout time.Duration) *HTTPProber {
	endpoint := strings.TrimRight(baseURL, "/") + ollamaTagsPath
	return NewHTTPProber(endpoint, nil, ParseOllamaModels, timeout)
}

// NewGeminiProber Gemini 探测器
// Gemini 通过 key 查询参数认证，不使用 Authorization 头
func NewGeminiProber(baseURL, apiKey string, timeout time.Duration) *HTTPProber {
	endpoint := strings.TrimRight(baseURL, "/") + geminiModelsPath + "?key=" + apiKey
	return NewHTTPProber(endpoint, nil, ParseGeminiModels, timeout)
}
