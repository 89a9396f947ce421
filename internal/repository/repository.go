package repository

import (
	"errors"

	"github.com/hanzhiyue/gemini-lens/internal/database"
)

// ErrNotFound 记录不存在，查询路径上不视为失败
var ErrNotFound = errors.New("record not found")

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	Gateway     *database.Gateway // 共享的数据库网关
	File        *FileRepository
	SearchCache *SearchCacheRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(gw *database.Gateway) *Repositories {
	return &Repositories{
		Gateway:     gw,
		File:        NewFileRepository(gw),
		SearchCache: NewSearchCacheRepository(gw),
	}
}
