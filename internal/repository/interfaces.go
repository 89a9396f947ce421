// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/hanzhiyue/gemini-lens/internal/model"

// FileStore 文件数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type FileStore interface {
	Save(record *model.FileRecord) error
	GetAll() ([]*model.FileRecord, error)
	GetByID(id string) (*model.FileRecord, error)
	Delete(id string) error
}

// SearchCacheStore 搜索缓存数据访问接口
type SearchCacheStore interface {
	Save(record *model.SearchCacheRecord) error
	Get(query string) (*model.SearchCacheRecord, error)
}

// 确保实现满足接口
var _ FileStore = (*FileRepository)(nil)
var _ SearchCacheStore = (*SearchCacheRepository)(nil)
