package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanzhiyue/gemini-lens/internal/config"
	"github.com/hanzhiyue/gemini-lens/internal/database"
	"github.com/hanzhiyue/gemini-lens/internal/handler"
	"github.com/hanzhiyue/gemini-lens/internal/repository"
	"github.com/hanzhiyue/gemini-lens/internal/router"
	"github.com/hanzhiyue/gemini-lens/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库网关，连接按需惰性打开
	gateway := database.NewGateway(cfg)
	defer gateway.Close()

	// 初始化各层
	repos := repository.NewRepositories(gateway)
	services, err := service.NewServices(repos, cfg)
	if err != nil {
		log.Fatalf("Failed to init services: %v", err)
	}
	defer services.Close()

	// 加载持久化文件，空库时写入占位资产并触发分析
	if err := services.Vault.Init(context.Background()); err != nil {
		log.Fatalf("Failed to init vault: %v", err)
	}
	log.Printf("Vault loaded with %d files", len(services.Vault.Files()))

	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.SetupRouter(handlers)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
