package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
	"github.com/hanzhiyue/gemini-lens/internal/database"
	"github.com/hanzhiyue/gemini-lens/internal/model"
)

// FileRepository 文件仓库
type FileRepository struct {
	gw *database.Gateway
}

// NewFileRepository 创建文件仓库
func NewFileRepository(gw *database.Gateway) *FileRepository {
	return &FileRepository{gw: gw}
}

// Save 按主键写入或覆盖文件记录
func (r *FileRepository) Save(record *model.FileRecord) error {
	db, err := r.gw.Open()
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error; err != nil {
		return apperr.Database("failed to save file", err)
	}
	return nil
}

// GetAll 获取全部文件记录，不保证顺序，排序由调用方负责
func (r *FileRepository) GetAll() ([]*model.FileRecord, error) {
	db, err := r.gw.Open()
	if err != nil {
		return nil, err
	}
	var records []*model.FileRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, apperr.Database("failed to list files", err)
	}
	return records, nil
}

// GetByID 根据 ID 获取文件记录，不存在返回 ErrNotFound
func (r *FileRepository) GetByID(id string) (*model.FileRecord, error) {
	db, err := r.gw.Open()
	if err != nil {
		return nil, err
	}
	var record model.FileRecord
	if err := db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Database("failed to get file", err)
	}
	return &record, nil
}

// Delete 删除文件记录，记录不存在时视为空操作
func (r *FileRepository) Delete(id string) error {
	db, err := r.gw.Open()
	if err != nil {
		return err
	}
	if err := db.Delete(&model.FileRecord{}, "id = ?", id).Error; err != nil {
		return apperr.Database("failed to delete file", err)
	}
	return nil
}
