package service

import (
	"context"
	"fmt"

	"github.com/hanzhiyue/gemini-lens/internal/config"
	"github.com/hanzhiyue/gemini-lens/internal/repository"
	"github.com/hanzhiyue/gemini-lens/internal/service/analysis"
	"github.com/hanzhiyue/gemini-lens/internal/service/storage"
	"github.com/hanzhiyue/gemini-lens/internal/service/vault"
)

// Services 服务集合
type Services struct {
	Storage  *storage.Service
	Analysis *analysis.Service
	Vault    *vault.Service

	Config *config.Config
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config) (*Services, error) {
	ctx := context.Background()

	storageSvc, err := storage.NewService(cfg.Storage.MaxFileSize, cfg.Storage.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	chatModel, modelName, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	analysisSvc := analysis.NewService(chatModel, modelName)

	vaultSvc := vault.NewService(repo.File, storageSvc, analysisSvc)

	return &Services{
		Storage:  storageSvc,
		Analysis: analysisSvc,
		Vault:    vaultSvc,
		Config:   cfg,
	}, nil
}

// Close 释放服务持有的会话级资源
func (s *Services) Close() {
	if s.Vault != nil {
		s.Vault.Close()
	}
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}
