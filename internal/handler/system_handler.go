package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzhiyue/gemini-lens/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// GetSystemInfo 获取系统信息
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	cfg := h.svc.Config
	Success(c, gin.H{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"ai_provider": cfg.AI.Provider,
	})
}
