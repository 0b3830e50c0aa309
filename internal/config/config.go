package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`              // 数据库文件路径
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大生命周期
	AutoMigrate     bool          `mapstructure:"auto_migrate"`      // 是否自动迁移
}

// SelectionConfig 供应商选择配置
type SelectionConfig struct {
	Mode         string        `mapstructure:"mode"`          // 默认优先级模式
	FilePath     string        `mapstructure:"file_path"`     // 选择结果持久化文件
	FreshWindow  time.Duration `mapstructure:"fresh_window"`  // 持久化结果的新鲜窗口
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"` // 单次探测超时
	StartTimeout time.Duration `mapstructure:"start_timeout"` // 启动后等待健康的最大时长
	PollInterval time.Duration `mapstructure:"poll_interval"` // 启动后轮询间隔
}

// ServerConfig 管理服务配置（serve 模式）
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	AuthEnabled bool   `mapstructure:"auth_enabled"` // 是否启用令牌认证
}

// MonitorConfig 后台健康监控配置
type MonitorConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Interval         time.Duration `mapstructure:"interval"`          // 巡检间隔
	FailureThreshold int           `mapstructure:"failure_threshold"` // 连续失败多少次判定不健康
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// Config 应用配置
type Config struct {
	Selection SelectionConfig `mapstructure:"selection"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Log       LogConfig       `mapstructure:"log"`
}

// DefaultDir 返回 MARIA 的数据目录（~/.maria）
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".maria"
	}
	return filepath.Join(home, ".maria")
}

// LoadConfig 加载配置
// 优先级：显式传入的配置文件 > ~/.maria/selector.yaml > 内置默认值；
// 环境变量（MARIA_ 前缀）覆盖同名配置项，如 MARIA_DATABASE_PATH
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	dir := DefaultDir()
	setDefaults(v, dir)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("selector")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MARIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值，显式指定的文件缺失则报错
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return &config, nil
}

// setDefaults 写入所有配置项的默认值
func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("selection.mode", "auto")
	v.SetDefault("selection.file_path", filepath.Join(dir, "selection.json"))
	v.SetDefault("selection.fresh_window", 5*time.Minute)
	v.SetDefault("selection.probe_timeout", 5*time.Second)
	v.SetDefault("selection.start_timeout", 30*time.Second)
	v.SetDefault("selection.poll_interval", 2*time.Second)

	v.SetDefault("database.path", filepath.Join(dir, "selector.db"))
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.auth_enabled", false)

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval", time.Minute)
	v.SetDefault("monitor.failure_threshold", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
