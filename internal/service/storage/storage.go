// Package storage 提供二进制内容与 Base64 文本编码之间的桥接，
// 以及会话级的本地展示句柄
package storage

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
)

// Service 文件存储服务
type Service struct {
	maxFileSize int64
	tempDir     string
}

// NewService 创建文件存储服务，tempDir 为空时在系统临时目录下建立会话目录
func NewService(maxFileSize int64, tempDir string) (*Service, error) {
	if tempDir == "" {
		dir, err := os.MkdirTemp("", "gemini-lens-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
		tempDir = dir
	} else {
		if err := os.MkdirAll(tempDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
	}
	return &Service{maxFileSize: maxFileSize, tempDir: tempDir}, nil
}

// Validate 校验声明的文件大小，超出上限返回校验失败，不读取内容
func (s *Service) Validate(size int64) error {
	if size > s.maxFileSize {
		return apperr.Validation(fmt.Sprintf("file size exceeds %dMB limit", s.maxFileSize/(1024*1024)))
	}
	return nil
}

// EncodeBase64 读取全部二进制内容并编码为 Base64 文本
func (s *Service) EncodeBase64(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperr.FileStorage("error reading file", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Handle 会话级的本地展示句柄，持有者不再展示时必须显式 Release
type Handle struct {
	path string
}

// Path 句柄对应的本地文件路径
func (h *Handle) Path() string {
	return h.path
}

// URL 句柄的 file URL 形式
func (h *Handle) URL() string {
	return "file://" + h.path
}

// Release 释放句柄，底层临时文件被删除，重复释放为空操作
func (h *Handle) Release() {
	if h.path == "" {
		return
	}
	os.Remove(h.path)
	h.path = ""
}

// MaterializeHandle 将 Base64 内容解码为会话级临时文件并返回其句柄
func (s *Service) MaterializeHandle(encoded, mimeType string) (*Handle, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.FileStorage("failed to decode content", err)
	}

	path := filepath.Join(s.tempDir, uuid.New().String()+extensionByMIME(mimeType))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, apperr.FileStorage("failed to write temp file", err)
	}
	return &Handle{path: path}, nil
}

// Close 移除会话目录及其下所有未释放的句柄文件
func (s *Service) Close() error {
	return os.RemoveAll(s.tempDir)
}

// extensionByMIME 根据 MIME 类型返回扩展名
func extensionByMIME(mimeType string) string {
	switch {
	case mimeType == "image/jpeg":
		return ".jpg"
	case mimeType == "image/png":
		return ".png"
	case mimeType == "image/gif":
		return ".gif"
	case mimeType == "image/webp":
		return ".webp"
	case strings.HasPrefix(mimeType, "video/"):
		return ".mp4"
	case mimeType == "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
