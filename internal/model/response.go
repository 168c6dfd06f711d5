package model

import (
	"fmt"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(data interface{}) Response {
	return Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

func Error(code int, message string) Response {
	return Response{
		Code:    code,
		Message: message,
	}
}

// HandleError 统一错误处理函数，记录详细日志并返回错误响应
func HandleError(c *gin.Context, code int, err error, context ...string) {
	requestMethod := c.Request.Method
	requestPath := c.Request.URL.Path
	requestQuery := c.Request.URL.RawQuery
	clientIP := c.ClientIP()

	// 获取用户信息（如果有）
	userID := ""
	username := ""
	if uid, exists := c.Get("user_id"); exists {
		userID = fmt.Sprintf("%v", uid)
	}
	if uname, exists := c.Get("username"); exists {
		username = fmt.Sprintf("%v", uname)
	}

	fullURL := requestPath
	if requestQuery != "" {
		fullURL = fmt.Sprintf("%s?%s", requestPath, requestQuery)
	}

	errorMsg := err.Error()
	if len(context) > 0 {
		errorMsg = fmt.Sprintf("%s: %v", context[0], err)
	}

	logger.Errorf(
		"Request error [%d]: %v\n"+
			"  Request: %s %s\n"+
			"  Client IP: %s\n"+
			"  User ID: %s\n"+
			"  Username: %s",
		code,
		errorMsg,
		requestMethod,
		fullURL,
		clientIP,
		userID,
		username,
	)

	c.JSON(code, Error(code, errorMsg))
}

// PaginatedResponse 分页响应
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}
