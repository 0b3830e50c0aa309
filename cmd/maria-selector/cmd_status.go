package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/spf13/cobra"
)

// statusCmd 展示持久化的选择结果与各候选实时健康
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看上次选择结果与各供应商实时健康",
	Long: `先展示持久化的上次选择结果及其新鲜度，再对注册表中启用的
候选逐个探测一轮。只探测，不触发启动。`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 上次选择
	result, err := a.store.Load()
	switch {
	case err == nil:
		age := time.Since(result.Timestamp).Round(time.Second)
		freshness := "已过期"
		if _, fresh := a.store.Fresh(appCfg.Selection.FreshWindow); fresh {
			freshness = "新鲜"
		}
		if result.Chosen() {
			fmt.Printf("上次选择: %s (模式 %s, %s 前, %s)\n",
				result.ChosenProviderID, result.Mode, age, freshness)
		} else {
			fmt.Printf("上次选择: 无可用供应商 (模式 %s, %s 前)\n", result.Mode, age)
		}
	case errors.Is(err, selection.ErrNoSelection):
		fmt.Println("上次选择: 尚无记录")
	default:
		return err
	}
	fmt.Println()

	// 实时探测一轮
	descriptors, err := a.runner.Descriptors()
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		fmt.Println("注册表中没有启用的供应商")
		return nil
	}

	fmt.Printf("%-12s %-14s %-16s %-9s %s\n", "PROVIDER", "KIND", "STATUS", "LATENCY", "MODELS")
	for _, descriptor := range descriptors {
		if descriptor.NotConfigured {
			fmt.Printf("%-12s %-14s %-16s %-9s %s\n",
				descriptor.ID, descriptor.Kind, "not-configured", "-", descriptor.NotConfiguredReason)
			continue
		}

		status := descriptor.Prober.Probe(cmd.Context())
		state := "unreachable"
		latency := "-"
		models := ""
		switch {
		case status.Healthy:
			state = "healthy"
			latency = fmt.Sprintf("%dms", status.ResponseTimeMs)
			models = fmt.Sprintf("%d", len(status.ModelsAvailable))
		case status.Running:
			state = "unhealthy"
			latency = fmt.Sprintf("%dms", status.ResponseTimeMs)
			models = status.Error
		default:
			models = status.Error
		}
		fmt.Printf("%-12s %-14s %-16s %-9s %s\n", descriptor.ID, descriptor.Kind, state, latency, models)
	}

	return nil
}
