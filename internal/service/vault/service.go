// Package vault 负责文件的摄入、分析编排与删除
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
	"github.com/hanzhiyue/gemini-lens/internal/model"
	"github.com/hanzhiyue/gemini-lens/internal/repository"
	"github.com/hanzhiyue/gemini-lens/internal/service/storage"
)

// Analyzer 分析客户端接口
type Analyzer interface {
	Analyze(ctx context.Context, file *model.File, encoded string) (*model.FileAnalysis, error)
}

// placeholder 库为空时的演示占位图
type placeholder struct {
	url  string
	name string
}

var placeholderImages = []placeholder{
	{url: "https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?w=800", name: "Mountain Mist"},
	{url: "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=800", name: "Forest Sunlight"},
	{url: "https://images.unsplash.com/photo-1501785888041-af3ef285b470?w=800", name: "Alpine Lake"},
}

// Service 文件保管库服务
// 内存视图与 analyzing 集合由互斥锁保护，同一文件 ID 的存储操作
// 只会按调用顺序串行发出，跨文件无顺序保证也不需要
type Service struct {
	files      repository.FileStore
	storage    *storage.Service
	analyzer   Analyzer
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	view      []*model.File                // 最新在前
	analyzing map[string]struct{}          // 分析在途的文件 ID 集合
	handles   map[string]*storage.Handle   // 文件 ID 到会话级缩略图句柄
}

// NewService 创建保管库服务
func NewService(files repository.FileStore, store *storage.Service, analyzer Analyzer) *Service {
	return &Service{
		files:      files,
		storage:    store,
		analyzer:   analyzer,
		httpClient: http.DefaultClient,
		now:        time.Now,
		analyzing:  make(map[string]struct{}),
		handles:    make(map[string]*storage.Handle),
	}
}

// Init 加载持久化的文件，库为空时写入占位资产并对其触发分析
func (s *Service) Init(ctx context.Context) error {
	records, err := s.files.GetAll()
	if err != nil {
		return err
	}

	entities := make([]*model.File, 0, len(records))
	for _, record := range records {
		entity, err := model.FileFromRecord(record)
		if err != nil {
			return err
		}
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].CreatedAt > entities[j].CreatedAt
	})

	if len(entities) == 0 {
		entities, err = s.seedPlaceholders()
		if err != nil {
			return err
		}
	}

	// 缩略图句柄是会话级的，本地图片每次启动重新生成
	for _, entity := range entities {
		s.refreshThumbnail(entity)
	}

	s.mu.Lock()
	s.view = entities
	s.mu.Unlock()

	if len(records) == 0 {
		for _, entity := range entities {
			s.analyzeAsync(entity.ID)
		}
	}
	return nil
}

func (s *Service) seedPlaceholders() ([]*model.File, error) {
	nowMillis := s.now().UnixMilli()
	entities := make([]*model.File, 0, len(placeholderImages))
	for idx, img := range placeholderImages {
		entity := &model.File{
			ID:           fmt.Sprintf("demo-%d", idx),
			Name:         img.name,
			OriginalName: img.name,
			Size:         1024 * 512,
			MIMEType:     "image/jpeg",
			Type:         model.FileTypeImage,
			Path:         img.url,
			CreatedAt:    nowMillis - int64(idx)*1000000,
			IsBookmarked: false,
		}
		record, err := model.FileToRecord(entity)
		if err != nil {
			return nil, err
		}
		if err := s.files.Save(record); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// UploadRequest 上传请求
type UploadRequest struct {
	FileName string
	MIMEType string
	Size     int64
	Reader   io.Reader
}

// Upload 摄入一个文件：校验、编码、持久化，然后自动触发分析
// 任何一步失败都在持久化之前中止，不会留下部分文件
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*model.File, error) {
	if err := s.storage.Validate(req.Size); err != nil {
		return nil, err
	}

	encoded, err := s.storage.EncodeBase64(req.Reader)
	if err != nil {
		return nil, err
	}

	entity := &model.File{
		ID:           uuid.New().String(),
		Name:         req.FileName,
		OriginalName: req.FileName,
		Size:         req.Size,
		MIMEType:     req.MIMEType,
		Type:         model.FileTypeFromMIME(req.MIMEType),
		Path:         encoded,
		CreatedAt:    s.now().UnixMilli(),
		IsBookmarked: false,
	}

	if entity.Type == model.FileTypeImage {
		handle, err := s.storage.MaterializeHandle(encoded, req.MIMEType)
		if err != nil {
			return nil, err
		}
		entity.ThumbnailURL = handle.URL()
		s.mu.Lock()
		s.handles[entity.ID] = handle
		s.mu.Unlock()
	}

	record, err := model.FileToRecord(entity)
	if err != nil {
		return nil, err
	}
	if err := s.files.Save(record); err != nil {
		s.releaseHandle(entity.ID)
		return nil, err
	}

	s.mu.Lock()
	s.view = append([]*model.File{entity}, s.view...)
	s.mu.Unlock()

	s.analyzeAsync(entity.ID)
	return entity, nil
}

// analyzeAsync 后台触发分析，失败在此吸收，不影响其他操作
func (s *Service) analyzeAsync(id string) {
	go func() {
		// 分析一旦发出就运行到完成或失败，不支持取消
		if err := s.Analyze(context.Background(), id); err != nil {
			log.Printf("auto analysis failed for file %s: %v", id, err)
		}
	}()
}

// Analyze 对指定文件执行一次分析并把结果合并回实体
// 同一 ID 已有分析在途时直接跳过（不排队、不报错）；
// 失败时实体保持分析前的状态
func (s *Service) Analyze(ctx context.Context, id string) error {
	s.mu.Lock()
	entity := s.lookup(id)
	if entity == nil {
		s.mu.Unlock()
		return fmt.Errorf("file %s: %w", id, repository.ErrNotFound)
	}
	if _, busy := s.analyzing[id]; busy {
		s.mu.Unlock()
		return nil
	}
	s.analyzing[id] = struct{}{}
	snapshot := *entity
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.analyzing, id)
		s.mu.Unlock()
	}()

	encoded, err := s.contentFor(ctx, &snapshot)
	if err != nil {
		return err
	}

	result, err := s.analyzer.Analyze(ctx, &snapshot, encoded)
	if err != nil {
		return err
	}

	// 迟到的成功结果对应的文件可能已被删除，持久化前确认仍然存在
	if _, err := s.files.GetByID(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("discarding analysis for deleted file %s", id)
			return nil
		}
		return err
	}

	updated := snapshot
	updated.Analysis = result
	updated.IsBookmarked = result.ShouldBookmark // 收藏与否由 AI 决定

	record, err := model.FileToRecord(&updated)
	if err != nil {
		return err
	}
	if err := s.files.Save(record); err != nil {
		return err
	}

	s.mu.Lock()
	for i, f := range s.view {
		if f.ID == id {
			s.view[i] = &updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// contentFor 取得用于分析的 Base64 内容，远程占位资产先抓取再编码
func (s *Service) contentFor(ctx context.Context, file *model.File) (string, error) {
	if !file.IsRemote() {
		return file.Path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Path, nil)
	if err != nil {
		return "", apperr.Network("failed to build asset request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperr.Network("failed to fetch remote asset", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Network(fmt.Sprintf("unexpected status %d fetching remote asset", resp.StatusCode), nil)
	}
	return s.storage.EncodeBase64(resp.Body)
}

// Delete 删除文件记录并同步更新内存视图，释放其缩略图句柄
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.files.Delete(id); err != nil {
		return err
	}

	s.mu.Lock()
	for i, f := range s.view {
		if f.ID == id {
			s.view = append(s.view[:i], s.view[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.releaseHandle(id)
	return nil
}

// releaseHandle 释放并移除指定文件的缩略图句柄
func (s *Service) releaseHandle(id string) {
	s.mu.Lock()
	handle := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()
	if handle != nil {
		handle.Release()
	}
}

// Files 返回当前视图的快照，最新在前
func (s *Service) Files() []*model.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.File, len(s.view))
	copy(out, s.view)
	return out
}

// Stats 保管库统计
type Stats struct {
	TotalFiles    int   `json:"total_files"`
	TotalSize     int64 `json:"total_size"`
	AnalyzedCount int   `json:"analyzed_count"`
}

// GetStats 汇总当前视图的统计信息
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{TotalFiles: len(s.view)}
	for _, f := range s.view {
		stats.TotalSize += f.Size
		if f.Analysis != nil {
			stats.AnalyzedCount++
		}
	}
	return stats
}

// IsAnalyzing 指定文件是否有分析在途
func (s *Service) IsAnalyzing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.analyzing[id]
	return busy
}

// Close 释放全部会话级句柄
func (s *Service) Close() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*storage.Handle)
	s.mu.Unlock()
	for _, h := range handles {
		h.Release()
	}
}

// lookup 调用方必须持有 s.mu
func (s *Service) lookup(id string) *model.File {
	for _, f := range s.view {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// refreshThumbnail 为本地图片重新生成会话级缩略图句柄
func (s *Service) refreshThumbnail(entity *model.File) {
	if entity.Type != model.FileTypeImage || entity.IsRemote() {
		return
	}
	handle, err := s.storage.MaterializeHandle(entity.Path, entity.MIMEType)
	if err != nil {
		// 缩略图仅用于展示，失败不阻塞加载
		log.Printf("failed to materialize thumbnail for file %s: %v", entity.ID, err)
		entity.ThumbnailURL = ""
		return
	}
	entity.ThumbnailURL = handle.URL()
	s.mu.Lock()
	s.handles[entity.ID] = handle
	s.mu.Unlock()
}
