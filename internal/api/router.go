package api

import (
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/api/handlers"
	"github.com/maria-ai/maria-selector/internal/api/middleware"
	"github.com/maria-ai/maria-selector/internal/catalog"
	"github.com/maria-ai/maria-selector/internal/events"
	"github.com/maria-ai/maria-selector/internal/registry"
	"github.com/maria-ai/maria-selector/internal/selection"
	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/maria-ai/maria-selector/internal/stats"
	"github.com/maria-ai/maria-selector/internal/token"
	"gorm.io/gorm"
)

// Options 路由装配依赖
// 协程型依赖（统计收集器、目录缓存）由调用方创建并负责关闭，
// 路由层只使用不持有
type Options struct {
	EncryptionKey []byte
	AuthEnabled   bool
	DefaultMode   selector.Mode
	FreshWindow   time.Duration
	Runner        *selection.Runner
	Store         *selection.Store
	Builder       *registry.DescriptorBuilder
	Catalog       *catalog.Service
	Collector     *stats.Collector
	Events        *events.Service
}

// SetupRouter 配置路由
func SetupRouter(database *gorm.DB, opts Options) *gin.Engine {
	router := gin.Default()
	router.Use(corsMiddleware())
	if opts.Collector != nil {
		router.Use(middleware.RequestCounterMiddleware(opts.Collector))
	}

	// 健康检查端点，不做认证
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "maria-selector",
		})
	})

	repo := registry.NewRepository(database)
	var registryService *registry.Service
	if len(opts.EncryptionKey) > 0 {
		registryService = registry.NewServiceWithEncryption(repo, opts.EncryptionKey)
	} else {
		registryService = registry.NewService(repo)
	}
	if opts.Events != nil {
		registryService.WithEvents(opts.Events)
	}
	tokenService := token.NewService(token.NewRepository(database))

	apiGroup := router.Group("/api")
	if opts.AuthEnabled {
		apiGroup.Use(middleware.TokenAuthMiddleware(tokenService))
	}

	// 选择运行
	selectionHandler := handlers.NewSelectionHandler(opts.Runner, opts.Store, opts.DefaultMode, opts.FreshWindow)
	apiGroup.POST("/select", selectionHandler.RunSelection)
	apiGroup.GET("/selection/latest", selectionHandler.GetLatest)

	// 供应商注册表
	providerHandler := handlers.NewProviderHandler(registryService, opts.Builder, opts.Catalog)
	providers := apiGroup.Group("/providers")
	{
		providers.POST("", providerHandler.CreateProvider)
		providers.GET("", providerHandler.ListProviders)
		providers.GET("/:id", providerHandler.GetProvider)
		providers.PUT("/:id", providerHandler.UpdateProvider)
		providers.DELETE("/:id", providerHandler.DeleteProvider)
		providers.GET("/:id/health", providerHandler.CheckProviderHealth)
		providers.GET("/:id/models", providerHandler.GetProviderModels)
	}

	// 模型目录
	catalogHandler := handlers.NewCatalogHandler(opts.Catalog, opts.Runner, opts.DefaultMode)
	apiGroup.GET("/resolve", catalogHandler.ResolveModel)

	// 统计与事件
	statsHandler := handlers.NewStatsHandler(database, opts.Collector, opts.Events)
	apiGroup.GET("/stats", statsHandler.GetStats)
	eventsHandler := handlers.NewEventsHandler(opts.Events)
	apiGroup.GET("/events", eventsHandler.ListEvents)

	// 访问令牌
	tokenHandler := handlers.NewTokenHandler(tokenService)
	tokens := apiGroup.Group("/tokens")
	{
		tokens.POST("", tokenHandler.CreateToken)
		tokens.GET("", tokenHandler.ListTokens)
		tokens.GET("/:id", tokenHandler.GetToken)
		tokens.DELETE("/:id", tokenHandler.DeleteToken)
	}

	return router
}

// corsMiddleware 跨域配置
// 管理接口只面向本机的控制台页面，放行任意端口的 localhost 来源
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			host := parsed.Hostname()
			return host == "localhost" || host == "127.0.0.1"
		},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}
