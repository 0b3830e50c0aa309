package credentials

import "strings"

// placeholderValues 常见的占位符取值（小写比较）
// 安装向导和模板配置会留下这些值，视同未配置
var placeholderValues = map[string]bool{
	"":                 true,
	"your-api-key":     true,
	"your_api_key":     true,
	"your-key-here":    true,
	"changeme":         true,
	"change-me":        true,
	"placeholder":      true,
	"todo":             true,
	"none":             true,
	"sk-xxxxxxxx":      true,
	"xxx":              true,
	"xxxx":             true,
	"xxxxx":            true,
	"xxxxxxxx":         true,
	"replace-with-key": true,
}

// IsPlaceholder 判断凭证是否为缺失/占位符
// 占位符凭证的云端供应商按"未配置"处理，不发起网络调用
func IsPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	if placeholderValues[strings.ToLower(trimmed)] {
		return true
	}

	// 模板风格的占位符，如 <YOUR_API_KEY>、${GROQ_API_KEY}
	if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		return true
	}
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		return true
	}

	return false
}

// MaskCredential 凭证脱敏
// 格式: abc****wxyz
func MaskCredential(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:3] + "****" + value[len(value)-4:]
}

// MaskStored 加密存储的凭证脱敏显示
// 加密后是 Base64 字符串，无法有意义地截取，显示固定格式
func MaskStored() string {
	return "[encrypted]****"
}
