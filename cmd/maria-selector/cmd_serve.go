package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/api"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/monitor"
	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/maria-ai/maria-selector/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serveCmd 启动管理服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动管理服务（REST API）",
	Long: `启动本地管理服务，提供注册表管理、选择触发、模型目录解析、
事件查询与运行统计等 REST 接口。配置 monitor.enabled 后同时运行
后台健康巡检。Ctrl+C 优雅退出。`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if appCfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := stats.NewCollector()
	defer collector.Close()
	catalogService := catalog.NewService(nil)
	defer catalogService.Close()

	runner := a.runner.WithStats(collector)

	// 后台健康巡检，可选
	var healthMonitor *monitor.Monitor
	if appCfg.Monitor.Enabled {
		healthMonitor = monitor.New(&monitor.Config{
			Interval:         appCfg.Monitor.Interval,
			FailureThreshold: appCfg.Monitor.FailureThreshold,
			ProbeTimeout:     appCfg.Selection.ProbeTimeout,
		}, monitor.NewRegistrySource(a.repo, a.builder), a.registry, a.events)
		// 健康翻转时丢弃该供应商的模型目录缓存
		healthMonitor.OnStateChange = func(providerID string, unhealthy bool) {
			catalogService.Invalidate(providerID)
		}
		healthMonitor.Start()
		defer healthMonitor.Stop()
		logrus.Infof("📊 健康巡检已启动: 间隔 %s, 失败阈值 %d",
			appCfg.Monitor.Interval, appCfg.Monitor.FailureThreshold)
	}

	router := api.SetupRouter(a.db, api.Options{
		EncryptionKey: a.encKey,
		AuthEnabled:   appCfg.Server.AuthEnabled,
		DefaultMode:   selector.Mode(appCfg.Selection.Mode),
		FreshWindow:   appCfg.Selection.FreshWindow,
		Runner:        runner,
		Store:         a.store,
		Builder:       a.builder,
		Catalog:       catalogService,
		Collector:     collector,
		Events:        a.events,
	})

	addr := fmt.Sprintf("%s:%d", appCfg.Server.Host, appCfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("✅ 管理服务已启动: http://%s", addr)
		if appCfg.Server.AuthEnabled {
			logrus.Info("🔒 令牌认证已启用")
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("管理服务启动失败: %w", err)
	case sig := <-quit:
		logrus.Infof("🔄 收到信号 %s，正在优雅关闭...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭管理服务失败: %w", err)
	}

	logrus.Info("👋 管理服务已退出")
	return nil
}
