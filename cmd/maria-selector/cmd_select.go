package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/spf13/cobra"
)

var (
	selectMode  string
	selectForce bool
	selectJSON  bool
)

// selectCmd 运行一次供应商选择
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "运行一次供应商选择",
	Long: `按优先级模式排序候选并逐个探测，返回第一个健康的供应商；
本地供应商不可达时至多启动一个。新鲜窗口内的上次结果会被直接复用，
--force 跳过复用强制重新选择。

无可用供应商不是命令错误：结果中 no_provider_available 为 true，
每个候选的失败原因都在 attempts 中。`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringVarP(&selectMode, "mode", "m", "", "优先级模式，默认取配置中的 selection.mode")
	selectCmd.Flags().BoolVarP(&selectForce, "force", "f", false, "忽略新鲜窗口内的缓存结果")
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "以 JSON 输出完整结果")
}

func runSelect(cmd *cobra.Command, args []string) error {
	modeStr := selectMode
	if modeStr == "" {
		modeStr = appCfg.Selection.Mode
	}
	mode, err := selector.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("无效的模式 %q，可选: %s", modeStr, modeList())
	}

	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 新鲜且同模式的结果直接复用
	if !selectForce {
		if cached, ok := a.runner.Cached(appCfg.Selection.FreshWindow); ok && cached.Mode == mode {
			printSelection(cached, true)
			return nil
		}
	}

	result, err := a.runner.Run(cmd.Context(), mode)
	if err != nil {
		return err
	}

	printSelection(result, false)
	return nil
}

// printSelection 输出选择结果
// cached 标记结果来自新鲜窗口复用而非本次运行
func printSelection(result *selector.SelectionResult, cached bool) {
	if selectJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("%+v\n", result)
			return
		}
		fmt.Println(string(data))
		return
	}

	if cached {
		fmt.Printf("📦 复用新鲜窗口内的结果 (run %s)\n", result.RunID)
	}

	if result.Chosen() {
		fmt.Printf("✅ 选中供应商: %s (模式 %s, 耗时 %dms)\n",
			result.ChosenProviderID, result.Mode, result.DurationMs)
		if result.StartedProviderID != "" {
			fmt.Printf("🔄 本次启动: %s\n", result.StartedProviderID)
		}
	} else {
		fmt.Printf("⚠️ 无可用供应商 (模式 %s, 尝试 %d 个候选)\n",
			result.Mode, len(result.AttemptedIDs))
	}

	for _, attempt := range result.Attempts {
		if attempt.ProviderID == result.ChosenProviderID {
			fmt.Printf("  ✓ %-12s %dms\n", attempt.ProviderID, attempt.Status.ResponseTimeMs)
			continue
		}
		detail := attempt.Error
		if detail == "" {
			detail = string(attempt.FailureType)
		}
		fmt.Printf("  ✗ %-12s [%s] %s\n", attempt.ProviderID, attempt.FailureType, detail)
	}
}

// modeList 所有合法模式，错误提示用
func modeList() string {
	modes := selector.Modes()
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, "/")
}
