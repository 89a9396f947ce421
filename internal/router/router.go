package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzhiyue/gemini-lens/internal/handler"
	"github.com/hanzhiyue/gemini-lens/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// File 文件
		files := v1.Group("/files")
		{
			files.GET("", h.File.ListFiles)
			files.POST("", h.File.UploadFile)
			files.GET("/stats", h.File.GetStats)
			files.POST("/:id/analyze", h.File.AnalyzeFile)
			files.DELETE("/:id", h.File.DeleteFile)
		}

		// System 系统
		system := v1.Group("/system")
		{
			system.GET("/info", h.System.GetSystemInfo)
		}
	}

	return r
}
