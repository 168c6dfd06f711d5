package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/api/handler/forms"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/api/middleware"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/auth"
)

// Setup 装配路由
func Setup(
	templateHandler *forms.TemplateHandler,
	submissionHandler *forms.SubmissionHandler,
	tokens *auth.TokenService,
	mode string,
	allowedOrigins []string,
) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()

	// 使用自定义的 recovery 中间件（打印详细错误信息）
	r.Use(middleware.RecoveryMiddleware())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.MetricsMiddleware())

	api := r.Group("/api")
	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	authenticated.Use(middleware.OperationLogMiddleware())
	{
		// 表单模板
		templates := authenticated.Group("/form-templates")
		{
			templates.GET("/field-types", templateHandler.ListFieldTypes) // 支持的字段类型
			templates.GET("", templateHandler.ListTemplates)              // 获取模板列表
			templates.GET("/:id", templateHandler.GetTemplate)            // 获取模板详情

			// 模板编辑只开放给管理员
			manage := templates.Group("")
			manage.Use(middleware.AdminMiddleware())
			{
				manage.POST("", templateHandler.CreateTemplate)                      // 创建模板
				manage.PUT("/:id", templateHandler.UpdateTemplate)                   // 更新模板
				manage.POST("/:id/publish", templateHandler.PublishTemplate)         // 发布模板
				manage.POST("/:id/archive", templateHandler.ArchiveTemplate)         // 归档模板
				manage.POST("/:id/fields/reorder", templateHandler.ReorderField)     // 调整字段顺序
			}
		}

		// 提交单
		submissions := authenticated.Group("/submissions")
		{
			submissions.POST("", submissionHandler.CreateSubmission)    // 创建草稿
			submissions.GET("", submissionHandler.ListSubmissions)      // 获取提交单列表
			submissions.GET("/:id", submissionHandler.GetSubmission)    // 获取提交单详情

			submissions.POST("/:id/autosave", submissionHandler.Autosave)            // 自动保存
			submissions.POST("/:id/autosave/flush", submissionHandler.FlushAutosave) // 立即保存
			submissions.DELETE("/:id/autosave", submissionHandler.CancelAutosave)    // 取消未保存变更

			submissions.POST("/:id/submit", submissionHandler.Submit)     // 提交审批
			submissions.POST("/:id/approve", submissionHandler.Approve)   // 批准
			submissions.POST("/:id/deny", submissionHandler.Deny)         // 驳回
			submissions.POST("/:id/withdraw", submissionHandler.Withdraw) // 撤回
		}
	}

	// Prometheus Metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check (支持 GET 和 HEAD 方法)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"type":   "api-server",
		})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "The requested resource was not found.",
		})
	})

	return r
}
