package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Success 成功响应 (200)
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// NoContent 无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Msg: msg})
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Msg: msg})
}

// Error 按失败类别映射状态码的错误响应
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var f *apperr.Failure
	if errors.As(err, &f) {
		switch f.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindPermission:
			status = http.StatusForbidden
		case apperr.KindNetwork, apperr.KindGeminiAPI:
			status = http.StatusBadGateway
		}
	}

	c.JSON(status, ErrorResponse{Code: status, Msg: err.Error()})
}
