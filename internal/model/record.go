package model

import (
	"encoding/json"
	"fmt"
)

// FileRecord 文件的落盘形态，analysis 压平为 JSON 文本存储
type FileRecord struct {
	ID           string   `json:"id" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"index"`
	OriginalName string   `json:"original_name"`
	Size         int64    `json:"size"`
	MIMEType     string   `json:"mime_type"`
	Type         FileType `json:"type" gorm:"index"`
	Path         string   `json:"path"`
	ThumbnailURL string   `json:"thumbnail_url"`
	CreatedAt    int64    `json:"created_at" gorm:"index"`
	IsBookmarked bool     `json:"is_bookmarked"`
	AnalysisJSON *string  `json:"analysis_json,omitempty"`
}

// TableName 指定表名
func (FileRecord) TableName() string {
	return "files"
}

// SearchCacheRecord 搜索缓存记录，以查询串为主键，覆盖式写入
type SearchCacheRecord struct {
	Query     string   `json:"query" gorm:"primaryKey"`
	ResultIDs []string `json:"result_ids" gorm:"serializer:json"` // 有序的文件 ID 列表
	Timestamp int64    `json:"timestamp"`
}

// TableName 指定表名
func (SearchCacheRecord) TableName() string {
	return "search_cache"
}

// 所有模型的统一导入点
// 用于 AutoMigrate
var AllModels = []interface{}{
	&FileRecord{},
	&SearchCacheRecord{},
}

// FileToRecord 实体转落盘记录，analysis 序列化为 JSON 文本
func FileToRecord(entity *File) (*FileRecord, error) {
	record := &FileRecord{
		ID:           entity.ID,
		Name:         entity.Name,
		OriginalName: entity.OriginalName,
		Size:         entity.Size,
		MIMEType:     entity.MIMEType,
		Type:         entity.Type,
		Path:         entity.Path,
		ThumbnailURL: entity.ThumbnailURL,
		CreatedAt:    entity.CreatedAt,
		IsBookmarked: entity.IsBookmarked,
	}
	if entity.Analysis != nil {
		data, err := json.Marshal(entity.Analysis)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analysis: %w", err)
		}
		s := string(data)
		record.AnalysisJSON = &s
	}
	return record, nil
}

// FileFromRecord 落盘记录转实体，存储的 analysis 文本损坏视为数据腐坏，硬失败
func FileFromRecord(record *FileRecord) (*File, error) {
	entity := &File{
		ID:           record.ID,
		Name:         record.Name,
		OriginalName: record.OriginalName,
		Size:         record.Size,
		MIMEType:     record.MIMEType,
		Type:         record.Type,
		Path:         record.Path,
		ThumbnailURL: record.ThumbnailURL,
		CreatedAt:    record.CreatedAt,
		IsBookmarked: record.IsBookmarked,
	}
	if record.AnalysisJSON != nil {
		var analysis FileAnalysis
		if err := json.Unmarshal([]byte(*record.AnalysisJSON), &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis for file %s: %w", record.ID, err)
		}
		entity.Analysis = &analysis
	}
	return entity, nil
}
