package main

import (
	"os"

	"github.com/maria-ai/maria-selector/internal/config"
	"github.com/maria-ai/maria-selector/internal/credentials"
	"github.com/maria-ai/maria-selector/internal/db"
	"github.com/maria-ai/maria-selector/internal/events"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app CLI 各命令共享的装配结果
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	repo     *registry.Repository
	registry *registry.Service
	builder  *registry.DescriptorBuilder
	store    *selection.Store
	events   *events.Service
	runner   *selection.Runner
	encKey   []byte
}

// openApp 打开数据库并装配各层
// 注册表为空时写入出厂默认供应商
func openApp(cfg *config.Config) (*app, error) {
	database, err := db.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(database); err != nil {
			_ = db.CloseDatabase(database)
			return nil, err
		}
	}

	if err := registry.SeedDefaults(database); err != nil {
		_ = db.CloseDatabase(database)
		return nil, err
	}

	// 加密密钥可选：未设置时凭证明文落库
	var encKey []byte
	if os.Getenv(credentials.EncryptionKeyEnv) != "" {
		encKey, err = credentials.LoadEncryptionKey()
		if err != nil {
			_ = db.CloseDatabase(database)
			return nil, err
		}
	} else {
		logrus.Debugf("未设置 %s，凭证将明文存储", credentials.EncryptionKeyEnv)
	}

	repo := registry.NewRepository(database)
	var registryService *registry.Service
	if encKey != nil {
		registryService = registry.NewServiceWithEncryption(repo, encKey)
	} else {
		registryService = registry.NewService(repo)
	}

	eventService := events.NewService(database)
	registryService.WithEvents(eventService)

	builder := registry.NewDescriptorBuilder(encKey, cfg.Selection.ProbeTimeout)
	sel := selector.NewSelector(&selector.Config{
		ProbeTimeout: cfg.Selection.ProbeTimeout,
		StartTimeout: cfg.Selection.StartTimeout,
		PollInterval: cfg.Selection.PollInterval,
	})
	store := selection.NewStore(cfg.Selection.FilePath)
	runner := selection.NewRunner(repo, builder, sel, store).WithEvents(eventService)

	return &app{
		cfg:      cfg,
		db:       database,
		repo:     repo,
		registry: registryService,
		builder:  builder,
		store:    store,
		events:   eventService,
		runner:   runner,
		encKey:   encKey,
	}, nil
}

// Close 释放数据库连接
func (a *app) Close() {
	if err := db.CloseDatabase(a.db); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ 关闭数据库失败")
	}
}
