package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseFunc 模型列表响应解析函数
// 返回模型标识序列，保持服务端顺序
type ParseFunc func(body io.Reader) ([]string, error)

// ParseOpenAIModels 解析 OpenAI 兼容格式
// 响应形如 { "data": [{ "id": "llama-3.1-8b-instant", ... }] }
func ParseOpenAIModels(body io.Reader) ([]string, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析模型列表失败: %w", err)
	}

	var models []string
	for _, m := range result.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}

	return models, nil
}

// ParseLMStudioModels 解析 LM Studio /api/v0/models 格式
// 响应形如 { "data": [{ "id": "...", "type": "llm", "state": "loaded" }] }
// 过滤 embeddings 类条目，只保留可对话模型
func ParseLMStudioModels(body io.Reader) ([]string, error) {
	var result struct {
		Data []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析模型列表失败: %w", err)
	}

	var models []string
	for _, m := range result.Data {
		if m.ID == "" || m.Type == "embeddings" {
			continue
		}
		models = append(models, m.ID)
	}

	return models, nil
}

// ParseOllamaModels 解析 Ollama /api/tags 格式
// 响应形如 { "models": [{ "name": "llama3:latest", ... }] }
func ParseOllamaModels(body io.Reader) ([]string, error) {
	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析模型列表失败: %w", err)
	}

	var models []string
	for _, m := range result.Models {
		if m.Name != "" {
			models = append(models, m.Name)
		}
	}

	return models, nil
}

// ParseGeminiModels 解析 Gemini 模型列表格式
// 响应形如 { "models": [{ "name": "models/gemini-2.0-flash",
// "supportedGenerationMethods": ["generateContent"] }] }
// 剥离 "models/" 前缀，只保留支持内容生成的模型
func ParseGeminiModels(body io.Reader) ([]string, error) {
	var result struct {
		Models []struct {
			Name                       string   `json:"name"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析模型列表失败: %w", err)
	}

	var models []string
	for _, m := range result.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		if name == "" {
			continue
		}

		supportsChat := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" || method == "streamGenerateContent" {
				supportsChat = true
				break
			}
		}
		if supportsChat {
			models = append(models, name)
		}
	}

	return models, nil
}
