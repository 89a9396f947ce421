package handler

import (
	"github.com/hanzhiyue/gemini-lens/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	File   *FileHandler
	System *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		File:   NewFileHandler(svc),
		System: NewSystemHandler(svc),
	}
}
