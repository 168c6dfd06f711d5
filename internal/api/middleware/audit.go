package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/database"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
)

// OperationLogMiddleware 操作日志中间件
// 只记录非 GET 请求，异步落库，不影响请求处理
func OperationLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		timeCost := time.Since(startTime).Milliseconds()

		if c.Request.Method == "GET" {
			return
		}

		username := c.GetString("username")
		if username == "" {
			return
		}

		operationLog := model.OperationLog{
			Username:  username,
			IP:        c.ClientIP(),
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			Desc:      apiDescription(c.Request.Method, c.FullPath()),
			Status:    c.Writer.Status(),
			StartTime: startTime,
			TimeCost:  timeCost,
			UserAgent: c.Request.UserAgent(),
		}

		go func() {
			if err := database.DB.Create(&operationLog).Error; err != nil {
				logger.Warnf("Failed to save operation log: %v", err)
			}
		}()
	}
}

// apiDescription 根据方法和路径生成操作描述
func apiDescription(method, path string) string {
	descriptions := map[string]string{
		"POST /api/form-templates":                    "创建表单模板",
		"PUT /api/form-templates/:id":                 "更新表单模板",
		"DELETE /api/form-templates/:id":              "删除表单模板",
		"POST /api/form-templates/:id/publish":        "发布表单模板",
		"POST /api/form-templates/:id/archive":        "归档表单模板",
		"POST /api/form-templates/:id/fields/reorder": "调整字段顺序",
		"POST /api/submissions":                       "创建提交单草稿",
		"POST /api/submissions/:id/autosave":          "自动保存草稿",
		"POST /api/submissions/:id/autosave/flush":    "保存草稿",
		"DELETE /api/submissions/:id/autosave":        "取消未保存的草稿变更",
		"POST /api/submissions/:id/submit":            "提交审批",
		"POST /api/submissions/:id/approve":           "批准提交单",
		"POST /api/submissions/:id/deny":              "驳回提交单",
		"POST /api/submissions/:id/withdraw":          "撤回提交单",
	}

	if desc, ok := descriptions[method+" "+path]; ok {
		return desc
	}
	return method + " " + path
}
