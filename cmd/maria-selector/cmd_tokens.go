package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/maria-ai/maria-selector/internal/token"
	"github.com/spf13/cobra"
)

var (
	tokenName      string
	tokenValue     string
	tokenExpiresIn time.Duration
)

// tokensCmd 管理服务的访问令牌
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "管理访问令牌（serve 模式认证用）",
}

var tokensCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建访问令牌",
	Long: `创建一个 Bearer 令牌。完整令牌只在创建时输出一次，
之后 list 只展示脱敏形式。`,
	RunE: runTokensCreate,
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有令牌（脱敏）",
	RunE:  runTokensList,
}

var tokensRevokeCmd = &cobra.Command{
	Use:   "revoke [id]",
	Short: "吊销令牌",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokensRevoke,
}

func init() {
	tokensCreateCmd.Flags().StringVar(&tokenName, "name", "", "令牌名称（必填）")
	tokensCreateCmd.Flags().StringVar(&tokenValue, "token", "", "自定义令牌值，sk- 开头且至少 8 位；留空自动生成")
	tokensCreateCmd.Flags().DurationVar(&tokenExpiresIn, "expires-in", 0, "有效期，如 720h；0 表示永不过期")
	_ = tokensCreateCmd.MarkFlagRequired("name")

	tokensCmd.AddCommand(tokensCreateCmd)
	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensRevokeCmd)
}

func tokenServiceFor(a *app) *token.Service {
	return token.NewService(token.NewRepository(a.db))
}

func runTokensCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := &token.CreateTokenRequest{
		Name:  tokenName,
		Token: tokenValue,
	}
	if tokenExpiresIn > 0 {
		expiresAt := time.Now().Add(tokenExpiresIn)
		req.ExpiresAt = &expiresAt
	}

	created, err := tokenServiceFor(a).CreateToken(req)
	if err != nil {
		return err
	}

	fmt.Printf("✅ 已创建令牌 %s (id=%d)\n", created.Name, created.ID)
	fmt.Printf("令牌值（仅此一次展示）: %s\n", created.Token)
	if created.ExpiresAt != nil {
		fmt.Printf("过期时间: %s\n", created.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func runTokensList(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	tokens, err := tokenServiceFor(a).ListTokens()
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-20s %-16s %-8s %-21s %s\n", "ID", "NAME", "TOKEN", "ENABLED", "EXPIRES", "LAST_USED")
	for _, item := range tokens {
		expires := "-"
		if item.ExpiresAt != nil {
			expires = item.ExpiresAt.Format("2006-01-02 15:04:05")
		}
		lastUsed := "-"
		if item.LastUsedAt != nil {
			lastUsed = item.LastUsedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-5d %-20s %-16s %-8t %-21s %s\n",
			item.ID, item.Name, token.MaskToken(item.Token), item.Enabled, expires, lastUsed)
	}
	fmt.Printf("\n共 %d 个令牌\n", len(tokens))
	return nil
}

func runTokensRevoke(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("无效的令牌 ID: %q", args[0])
	}

	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := tokenServiceFor(a).DeleteToken(uint(id)); err != nil {
		return err
	}

	fmt.Printf("✅ 已吊销令牌 %d\n", id)
	return nil
}
