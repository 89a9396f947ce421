package model

import "strings"

// FileType 文件类型
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

// FileTypeFromMIME 根据 MIME 类型分类文件
func FileTypeFromMIME(mimeType string) FileType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return FileTypeVideo
	case mimeType == "application/pdf" || strings.HasPrefix(mimeType, "text/"):
		return FileTypeDocument
	default:
		return FileTypeOther
	}
}

// FileAnalysis AI 对单个文件的一次完整评估结果
type FileAnalysis struct {
	Summary           string   `json:"summary"`
	Tags              []string `json:"tags"`
	SuggestedName     string   `json:"suggestedName"`
	DetectedObjects   []string `json:"detectedObjects"`
	VisualDescription string   `json:"visualDescription"`
	ShouldBookmark    bool     `json:"shouldBookmark"` // AI 根据质量/重要性决定是否自动收藏
	AIModelUsed       string   `json:"aiModelUsed"`
	Timestamp         int64    `json:"timestamp"`
}

// File 文件实体，代表一个用户资产及其 AI 分析
type File struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	OriginalName string        `json:"originalName"`
	Size         int64         `json:"size"`
	MIMEType     string        `json:"mimeType"`
	Type         FileType      `json:"type"`
	Path         string        `json:"path"` // 远程 URL（占位资产）或本地 Base64 内容
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	CreatedAt    int64         `json:"createdAt"` // 毫秒时间戳
	IsBookmarked bool          `json:"isBookmarked"`
	Analysis     *FileAnalysis `json:"analysis,omitempty"`
}

// IsRemote 判断文件内容是否为远程引用
func (f *File) IsRemote() bool {
	return strings.HasPrefix(f.Path, "http")
}

// DisplayName 展示名称，分析完成后优先使用 AI 建议的标题
func (f *File) DisplayName() string {
	if f.Analysis != nil && f.Analysis.SuggestedName != "" {
		return f.Analysis.SuggestedName
	}
	return f.Name
}
