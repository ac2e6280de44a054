// @title           Visitor Pass Service API
// @version         1.0
// @description     Visitor access passes, gate redemption and AI-assisted incident reports
// @BasePath        /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"visitor-pass-service/internal/app/routes"
	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/infrastructure/config"
	"visitor-pass-service/internal/infrastructure/database"
	Logger "visitor-pass-service/pkg/logger"
)

func main() {
	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer Logger.Sync()

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
		Logger.Warning("无法加载.env文件: %v", err)
	} else {
		Logger.Info("成功加载.env文件")
	}

	cfg := config.GetConfig()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		Logger.Error("无法创建数据库连接池: %v", err)
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	Logger.Info("数据库迁移模式: %s", cfg.DBMigrationMode)
	if err := database.Migrate(db, cfg.DBMigrationMode); err != nil {
		Logger.Error("数据库迁移失败: %v", err)
		os.Exit(1)
	}
	if err := database.EnsureDefaultRoles(db); err != nil {
		Logger.Error("初始化角色失败: %v", err)
		os.Exit(1)
	}
	if err := database.EnsureAdminExists(db, cfg); err != nil {
		Logger.Error("初始化管理员失败: %v", err)
		os.Exit(1)
	}

	serviceContainer := container.NewServiceContainer(db, cfg, container.Dependencies{
		Redis: services.NewRedisClient(cfg),
	})
	defer serviceContainer.Close()

	r := routes.SetupRouter(serviceContainer)
	printSystemInfo(pool)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		Logger.Info("服务器启动在: http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("启动服务器失败: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("关闭服务器失败: %v", err)
	}
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	if stats, err := pool.Stats(); err == nil {
		Logger.Info("数据库连接池状态: %+v", stats)
	}

	Logger.Info("系统CPU核心数: %d, 当前Go协程数: %d", runtime.NumCPU(), runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	Logger.Info("系统内存使用: Alloc=%v MiB, Sys=%v MiB", m.Alloc/1024/1024, m.Sys/1024/1024)
}
