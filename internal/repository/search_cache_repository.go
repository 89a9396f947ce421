package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
	"github.com/hanzhiyue/gemini-lens/internal/database"
	"github.com/hanzhiyue/gemini-lens/internal/model"
)

// SearchCacheRepository 搜索缓存仓库
// 当前没有用户侧搜索流程写入，保留为覆盖式 put/get 映射，无 TTL、无淘汰
type SearchCacheRepository struct {
	gw *database.Gateway
}

// NewSearchCacheRepository 创建搜索缓存仓库
func NewSearchCacheRepository(gw *database.Gateway) *SearchCacheRepository {
	return &SearchCacheRepository{gw: gw}
}

// Save 按查询串写入或覆盖缓存记录
func (r *SearchCacheRepository) Save(record *model.SearchCacheRecord) error {
	db, err := r.gw.Open()
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error; err != nil {
		return apperr.Database("failed to save search cache", err)
	}
	return nil
}

// Get 根据查询串获取缓存记录，不存在返回 ErrNotFound
func (r *SearchCacheRepository) Get(query string) (*model.SearchCacheRecord, error) {
	db, err := r.gw.Open()
	if err != nil {
		return nil, err
	}
	var record model.SearchCacheRecord
	if err := db.Where("query = ?", query).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Database("failed to get search cache", err)
	}
	return &record, nil
}
