package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/api/handler"
	"github.com/DEVASANJAY001/qamatrixx/internal/api/router"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
	"github.com/DEVASANJAY001/qamatrixx/internal/service"
	"github.com/DEVASANJAY001/qamatrixx/pkg/database"
	"github.com/DEVASANJAY001/qamatrixx/pkg/jwt"
	applogger "github.com/DEVASANJAY001/qamatrixx/pkg/logger"
	"github.com/DEVASANJAY001/qamatrixx/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	migrateDown := flag.Int("migrate-down", 0, "回滚指定步数的数据库迁移后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, logLevel, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2.1 配置热更新：仅日志级别即时生效，其余项需重启
	watching := config.Watch(*configPath,
		func(newCfg *config.Config) {
			if err := applogger.ApplyLevel(logLevel, newCfg.Log.Level); err != nil {
				logger.Warn("配置热更新：日志级别无效", zap.Error(err))
				return
			}
			logger.Info("配置热更新：日志级别已调整", zap.String("log_level", newCfg.Log.Level))
		},
		func(err error) {
			logger.Warn("配置热更新失败，保留旧配置", zap.Error(err))
		},
	)
	if watching {
		logger.Info("已开启配置文件监听")
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if *migrateDown > 0 {
		if err := database.RollbackMigrations(sqlDB, *migrateDown, logger); err != nil {
			logger.Fatal("数据库迁移回滚失败", zap.Error(err))
		}
		sqlDB.Close()
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、导入限流与统计缓存将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.EnsureBootstrapOperator(bootCtx); err != nil {
		bootCancel()
		logger.Fatal("创建初始管理员失败", zap.Error(err))
	}
	bootCancel()

	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // 导出大表需要更长写超时
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	sqlDB.Close()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
