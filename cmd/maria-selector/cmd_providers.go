package main

import (
	"fmt"

	"github.com/maria-ai/maria-selector/internal/credentials"
	"github.com/maria-ai/maria-selector/internal/models"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/spf13/cobra"
)

var (
	addName              string
	addKind              string
	addBaseURL           string
	addAPIKey            string
	addCredentialEnv     string
	addStartCommand      string
	addProbeStyle        string
	addDisabled          bool
	addPrivacyWeight     int
	addPerformanceWeight int
	addCostWeight        int
)

// providersCmd 供应商注册表管理
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "管理供应商注册表",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有供应商",
	RunE:  runProvidersList,
}

var providersAddCmd = &cobra.Command{
	Use:   "add [slug]",
	Short: "添加供应商",
	Long: `添加一个供应商到注册表。

示例:
  maria-selector providers add llamacpp \
    --name "llama.cpp" --kind local-server \
    --base-url http://127.0.0.1:8089 --start-command "llama-server"`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersAdd,
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove [slug]",
	Short: "删除供应商",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersRemove,
}

var providersEnableCmd = &cobra.Command{
	Use:   "enable [slug]",
	Short: "启用供应商",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProviderEnabled(args[0], true)
	},
}

var providersDisableCmd = &cobra.Command{
	Use:   "disable [slug]",
	Short: "禁用供应商（不再参与选择）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProviderEnabled(args[0], false)
	},
}

var providersSetKeyCmd = &cobra.Command{
	Use:   "set-key [slug] [api-key]",
	Short: "设置供应商的 API 密钥",
	Args:  cobra.ExactArgs(2),
	RunE:  runProvidersSetKey,
}

func init() {
	providersAddCmd.Flags().StringVar(&addName, "name", "", "展示名称（必填）")
	providersAddCmd.Flags().StringVar(&addKind, "kind", "", "类型: local-process/local-server/cloud-api（必填）")
	providersAddCmd.Flags().StringVar(&addBaseURL, "base-url", "", "服务地址，如 http://127.0.0.1:11434（必填）")
	providersAddCmd.Flags().StringVar(&addAPIKey, "api-key", "", "API 密钥（云端供应商）")
	providersAddCmd.Flags().StringVar(&addCredentialEnv, "credential-env", "", "凭证环境变量名，优先于存储的密钥")
	providersAddCmd.Flags().StringVar(&addStartCommand, "start-command", "", "启动命令（本地供应商）")
	providersAddCmd.Flags().StringVar(&addProbeStyle, "probe-style", "", "探测端点形态: openai/ollama-style/lmstudio-style/gemini-style")
	providersAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "添加后先不参与选择")
	providersAddCmd.Flags().IntVar(&addPrivacyWeight, "privacy-weight", 0, "privacy-first 模式权重，数字越小越优先")
	providersAddCmd.Flags().IntVar(&addPerformanceWeight, "performance-weight", 0, "performance 模式权重")
	providersAddCmd.Flags().IntVar(&addCostWeight, "cost-weight", 0, "cost-effective 模式权重")
	_ = providersAddCmd.MarkFlagRequired("name")
	_ = providersAddCmd.MarkFlagRequired("kind")
	_ = providersAddCmd.MarkFlagRequired("base-url")

	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersAddCmd)
	providersCmd.AddCommand(providersRemoveCmd)
	providersCmd.AddCommand(providersEnableCmd)
	providersCmd.AddCommand(providersDisableCmd)
	providersCmd.AddCommand(providersSetKeyCmd)
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	providers, total, err := a.registry.ListProviders(1, 100)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-14s %-30s %-8s %-10s %s\n", "SLUG", "KIND", "BASE_URL", "ENABLED", "HEALTH", "CREDENTIAL")
	for _, provider := range providers {
		fmt.Printf("%-12s %-14s %-30s %-8t %-10s %s\n",
			provider.Slug, provider.Kind, provider.BaseURL,
			provider.Enabled, provider.HealthStatus, credentialDisplay(provider))
	}
	fmt.Printf("\n共 %d 个供应商\n", total)
	return nil
}

// credentialDisplay 凭证列展示
// 环境变量名可见；存储的密钥只展示是否存在，密文不可脱敏
func credentialDisplay(provider *models.Provider) string {
	if provider.CredentialEnv != "" {
		return "env:" + provider.CredentialEnv
	}
	if provider.APIKey != "" {
		return "key:set"
	}
	return "-"
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	enabled := !addDisabled
	req := registry.CreateProviderRequest{
		Slug:          args[0],
		Name:          addName,
		Kind:          addKind,
		BaseURL:       addBaseURL,
		APIKey:        addAPIKey,
		CredentialEnv: addCredentialEnv,
		StartCommand:  addStartCommand,
		ProbeStyle:    addProbeStyle,
		Enabled:       &enabled,
	}
	if cmd.Flags().Changed("privacy-weight") {
		req.PrivacyWeight = &addPrivacyWeight
	}
	if cmd.Flags().Changed("performance-weight") {
		req.PerformanceWeight = &addPerformanceWeight
	}
	if cmd.Flags().Changed("cost-weight") {
		req.CostWeight = &addCostWeight
	}

	provider, err := a.registry.CreateProvider(req)
	if err != nil {
		return err
	}

	fmt.Printf("✅ 已添加供应商 %s (id=%d)\n", provider.Slug, provider.ID)
	return nil
}

func runProvidersRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	provider, err := a.repo.FindBySlug(args[0])
	if err != nil {
		return err
	}
	if err := a.registry.DeleteProvider(provider.ID); err != nil {
		return err
	}

	fmt.Printf("✅ 已删除供应商 %s\n", args[0])
	return nil
}

func setProviderEnabled(slug string, enabled bool) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	provider, err := a.repo.FindBySlug(slug)
	if err != nil {
		return err
	}
	if _, err := a.registry.UpdateProvider(provider.ID, registry.UpdateProviderRequest{Enabled: &enabled}); err != nil {
		return err
	}

	verb := "启用"
	if !enabled {
		verb = "禁用"
	}
	fmt.Printf("✅ 已%s供应商 %s\n", verb, slug)
	return nil
}

func runProvidersSetKey(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	provider, err := a.repo.FindBySlug(args[0])
	if err != nil {
		return err
	}
	key := args[1]
	if _, err := a.registry.UpdateProvider(provider.ID, registry.UpdateProviderRequest{APIKey: &key}); err != nil {
		return err
	}

	fmt.Printf("✅ 已更新 %s 的密钥: %s\n", args[0], credentials.MaskCredential(key))
	return nil
}
