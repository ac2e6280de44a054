package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "visitor-pass-service/docs"
	"visitor-pass-service/internal/app/controllers"
	"visitor-pass-service/internal/app/middleware"
	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	Logger "visitor-pass-service/pkg/logger"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(serviceContainer *container.ServiceContainer) *gin.Engine {
	cfg := serviceContainer.GetConfig()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: serviceContainer.Registerer()})
	if err != nil {
		Logger.Warning("注册HTTP指标失败: %v", err)
	}
	r.Use(httpMetrics.Handler())

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(serviceContainer.Gatherer(), promhttp.HandlerOpts{})))

	auth := middleware.NewAuthMiddleware(serviceContainer.GetService("jwt").(services.InterfaceJWTService))

	api := r.Group("/api")
	registerPublicRoutes(api, serviceContainer, cfg.RateLimitRPS, cfg.RateLimitBurst)
	registerAuthenticatedRoutes(api, serviceContainer, auth, cfg.RateLimitRPS, cfg.RateLimitBurst)
	return r
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(api *gin.RouterGroup, container *container.ServiceContainer, rps float64, burst int) {
	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health/status", controllers.HandleHealthFunc(container, "status"))

	// 登录按IP和路由组合限流
	api.POST("/auth/login",
		middleware.CombinedRateLimiter(rps, burst),
		controllers.HandleAuthFunc(container, "login"),
	)

	// 通行码查询按IP限流防止枚举
	api.GET("/access-passes/code/:code",
		middleware.IPRateLimiter(rps, burst),
		controllers.HandleAccessPassFunc(container, "getByCode"),
	)
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(api *gin.RouterGroup, container *container.ServiceContainer, auth *middleware.AuthMiddleware, rps float64, burst int) {
	authenticated := api.Group("")
	authenticated.Use(auth.Authenticate())

	// 访客通行证
	passes := authenticated.Group("/access-passes")
	{
		passes.POST("", controllers.HandleAccessPassFunc(container, "createAccessPass"))
		passes.GET("/my-passes", controllers.HandleAccessPassFunc(container, "getMyPasses"))
		passes.PUT("/:id/cancel", controllers.HandleAccessPassFunc(container, "cancelPass"))
	}

	authenticated.GET("/users/me", controllers.HandleUserFunc(container, "getMe"))

	// 门岗核验仅限安保和管理员
	authenticated.POST("/access-passes/code/:code/redeem",
		auth.RequireRoles(models.RoleTypeSecurity, models.RoleTypeAdmin),
		middleware.CombinedRateLimiter(rps, burst),
		controllers.HandleAccessPassFunc(container, "redeemPass"),
	)

	// 管理员路由
	admin := authenticated.Group("")
	admin.Use(auth.RequireRoles(models.RoleTypeAdmin))

	reportCache := middleware.NewResponseCache()
	reports := admin.Group("/incident-reports")
	{
		reports.POST("/generate", reportCache.PurgeOnSuccess(), controllers.HandleIncidentReportFunc(container, "generateReport"))
		reports.GET("", reportCache.Handler(time.Minute), controllers.HandleIncidentReportFunc(container, "listReports"))
		reports.GET("/:id", reportCache.Handler(10*time.Minute), controllers.HandleIncidentReportFunc(container, "getReport"))
	}

	admin.POST("/auth/invite", controllers.HandleAuthFunc(container, "invite"))

	admin.POST("/units", controllers.HandleUserFunc(container, "createUnit"))
	admin.GET("/units", controllers.HandleUserFunc(container, "listUnits"))
	admin.PUT("/users/:id/units", controllers.HandleUserFunc(container, "assignUnits"))
}
