package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"exam-planner/config"
	"exam-planner/internal/api/handler"
	"exam-planner/internal/api/middleware"
	"exam-planner/pkg/redis"
)

// 排考请求体上限
const maxBodyBytes = 64 << 10

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流降级放行；gatherer 为 nil 时使用默认注册表
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}
	runLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 排考运行
		plannings := v1.Group("/plannings")
		{
			plannings.POST("", runLimit, h.Planning.Run)
			plannings.GET("/latest", h.Planning.GetLatest)
			plannings.GET("/:id", h.Planning.GetRun)
			plannings.GET("/:id/conflicts", h.Planning.GetConflicts)
			plannings.GET("/:id/overview", h.Exam.Overview)
		}

		// 考试查询（只读）
		v1.GET("/exams", h.Exam.ListExams)

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/exams", h.Export.ExportExams)
		}
	}

	return r
}
