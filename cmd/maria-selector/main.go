package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/maria-ai/maria-selector/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version 构建版本，发布时通过 -ldflags 覆盖
var Version = "0.1.0"

var (
	cfgFile string
	appCfg  *config.Config
)

// rootCmd CLI 入口
var rootCmd = &cobra.Command{
	Use:   "maria-selector",
	Short: "MARIA 本地推理供应商的发现与故障转移选择器",
	Long: `maria-selector 为 MARIA CLI 挑选可用的推理供应商。

按优先级模式（privacy-first / performance / cost-effective / auto）
逐个探测注册表中的候选；本地供应商不可达时至多启动一个，并在预算内
轮询等待其变为健康。选择结果以 JSON 持久化，新鲜窗口内直接复用。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		appCfg = cfg
		setupLogging(&cfg.Log)
		return nil
	},
}

// versionCmd 打印版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maria-selector v%s\n", Version)
	},
}

// setupLogging 按配置初始化全局 logrus
func setupLogging(cfg *config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ~/.maria/selector.yaml）")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// .env 便于开发环境注入凭证，缺失不报错
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
