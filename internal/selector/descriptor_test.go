package selector

import (
	"context"
	"testing"

	"github.com/maria-ai/maria-selector/internal/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseMode 模式解析：合法值通过，非法值返回 ErrInvalidMode
func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"privacy-first", ModePrivacyFirst},
		{"performance", ModePerformance},
		{"cost-effective", ModeCostEffective},
		{"auto", ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}

	_, err := ParseMode("balanced")
	require.ErrorIs(t, err, ErrInvalidMode)

	_, err = ParseMode("")
	require.ErrorIs(t, err, ErrInvalidMode)
}

// TestModeValid 模式合法性判定
func TestModeValid(t *testing.T) {
	for _, mode := range Modes() {
		assert.True(t, mode.Valid(), "mode %s", mode)
	}
	assert.False(t, Mode("fastest").Valid())
	assert.False(t, Mode("").Valid())
}

// TestWeightsFor 按模式取对应权重，auto 沿用隐私权重
func TestWeightsFor(t *testing.T) {
	w := Weights{Privacy: 1, Performance: 2, Cost: 3}

	assert.Equal(t, 1, w.For(ModePrivacyFirst))
	assert.Equal(t, 2, w.For(ModePerformance))
	assert.Equal(t, 3, w.For(ModeCostEffective))
	assert.Equal(t, 1, w.For(ModeAuto))
}

// TestKindLocal 本地类型判定
func TestKindLocal(t *testing.T) {
	assert.True(t, KindLocalProcess.Local())
	assert.True(t, KindLocalServer.Local())
	assert.False(t, KindCloudAPI.Local())
}

// TestDescriptorStartable 只有具备启动命令的本地候选可被启动
func TestDescriptorStartable(t *testing.T) {
	starter := launcher.StartFunc(func(ctx context.Context) error { return nil })

	local := ProviderDescriptor{ID: "ollama", Kind: KindLocalServer, Starter: starter}
	assert.True(t, local.startable())

	noStarter := ProviderDescriptor{ID: "vllm", Kind: KindLocalServer}
	assert.False(t, noStarter.startable())

	cloud := ProviderDescriptor{ID: "groq", Kind: KindCloudAPI, Starter: starter}
	assert.False(t, cloud.startable())
}
