package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/api/handler"
	"github.com/DEVASANJAY001/qamatrixx/internal/api/middleware"
	"github.com/DEVASANJAY001/qamatrixx/pkg/jwt"
	"github.com/DEVASANJAY001/qamatrixx/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", h.Metrics.Metrics)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/operators", middleware.RoleAuth("admin"), h.Auth.CreateOperator)

			writer := middleware.RoleAuth("admin", "editor")

			// 质量问题模块
			concerns := authorized.Group("/concerns")
			{
				concerns.GET("", h.Concern.ListConcerns)
				concerns.GET("/facets", h.Concern.GetFacets)
				concerns.GET("/summary", h.Concern.GetSummary)
				concerns.GET("/:sno", h.Concern.GetConcern)
				concerns.GET("/:sno/history", h.Concern.GetHistory)
				concerns.POST("", writer, h.Concern.CreateConcern)
				concerns.PUT("/:sno/scores", writer, h.Concern.UpdateScore)
				concerns.PUT("/:sno/weekly", writer, h.Concern.UpdateWeekly)
				concerns.PUT("/:sno/fields", writer, h.Concern.UpdateField)
				concerns.DELETE("/:sno", writer, h.Concern.DeleteConcern)

				concerns.POST("/import", writer,
					middleware.RateLimit(rdb, cfg.Matrix.ImportRateLimit, cfg.Matrix.ImportWindow, logger),
					h.Import.ImportConcerns)
				concerns.POST("/reset", middleware.RoleAuth("admin"), h.Import.ResetToBaseline)
				concerns.POST("/recompute", middleware.RoleAuth("admin"), h.Concern.RecomputeAll)
			}

			// 导出模块（与列表相同的查询参数）
			export := authorized.Group("/export")
			{
				export.GET("/concerns.xlsx", h.Export.ExportXLSX)
				export.GET("/concerns.csv", h.Export.ExportCSV)
			}
		}
	}

	return r
}
