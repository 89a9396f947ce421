package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hanzhiyue/gemini-lens/internal/repository"
	"github.com/hanzhiyue/gemini-lens/internal/service"
	"github.com/hanzhiyue/gemini-lens/internal/service/vault"
)

// FileHandler 文件处理器
type FileHandler struct {
	vault *vault.Service
}

// NewFileHandler 创建文件处理器
func NewFileHandler(svc *service.Services) *FileHandler {
	return &FileHandler{vault: svc.Vault}
}

// ListFiles 列出全部文件，最新在前
func (h *FileHandler) ListFiles(c *gin.Context) {
	Success(c, h.vault.Files())
}

// UploadFile 上传文件，摄入边界只接受图片内容
func (h *FileHandler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "no file provided")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		BadRequest(c, "only image uploads are accepted")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		Error(c, err)
		return
	}
	defer f.Close()

	entity, err := h.vault.Upload(c.Request.Context(), &vault.UploadRequest{
		FileName: fileHeader.Filename,
		MIMEType: contentType,
		Size:     fileHeader.Size,
		Reader:   f,
	})
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, entity)
}

// DeleteFile 删除文件
func (h *FileHandler) DeleteFile(c *gin.Context) {
	id := c.Param("id")
	if err := h.vault.Delete(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}

// AnalyzeFile 触发一次重新分析，正在分析中的文件静默跳过
func (h *FileHandler) AnalyzeFile(c *gin.Context) {
	id := c.Param("id")
	if err := h.vault.Analyze(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, err.Error())
			return
		}
		Error(c, err)
		return
	}
	NoContent(c)
}

// GetStats 保管库统计
func (h *FileHandler) GetStats(c *gin.Context) {
	Success(c, h.vault.GetStats())
}
