package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIsPlaceholder 测试占位符识别
func TestIsPlaceholder(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"wizard default", "your-api-key", true},
		{"wizard default upper", "YOUR_API_KEY", true},
		{"changeme", "changeme", true},
		{"angle template", "<YOUR_GROQ_KEY>", true},
		{"shell template", "${GROQ_API_KEY}", true},
		{"xxx filler", "xxxx", true},
		{"real groq key", "gsk_abc123def456ghi789", false},
		{"real gemini key", "AIzaSyB-1234567890abcdefg", false},
		{"real openai style key", "sk-proj-abcdef123456", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsPlaceholder(tc.value)
			assert.Equal(t, tc.want, got, "IsPlaceholder(%q)", tc.value)
		})
	}
}

// TestMaskCredential 测试凭证脱敏
func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "****", MaskCredential("short"))
	assert.Equal(t, "****", MaskCredential(""))
	assert.Equal(t, "gsk****6789", MaskCredential("gsk_abc123def456789"))
	assert.Equal(t, "[encrypted]****", MaskStored())
}
