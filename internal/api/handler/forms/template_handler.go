package forms

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	formsvc "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/service/forms"
)

// TemplateHandler 表单模板处理器
type TemplateHandler struct {
	service  *formsvc.TemplateService
	registry *form.Registry
}

// NewTemplateHandler 创建表单模板处理器
func NewTemplateHandler(service *formsvc.TemplateService, registry *form.Registry) *TemplateHandler {
	return &TemplateHandler{service: service, registry: registry}
}

// ListFieldTypes 获取支持的字段类型，表单设计器的下拉数据源
func (h *TemplateHandler) ListFieldTypes(c *gin.Context) {
	types := h.registry.Types()
	items := make([]gin.H, 0, len(types))
	for _, t := range types {
		spec, _ := h.registry.Describe(t)
		items = append(items, gin.H{
			"type":  t,
			"multi": spec.Multi,
		})
	}

	c.JSON(http.StatusOK, model.Success(items))
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Fields      model.FieldList `json:"fields"`
}

// UpdateTemplateRequest 更新模板请求，缺失的字段不变
type UpdateTemplateRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Fields      *model.FieldList `json:"fields"`
}

// ReorderFieldRequest 字段移动请求
type ReorderFieldRequest struct {
	FieldID  string `json:"field_id" binding:"required"`
	NewIndex *int   `json:"new_index" binding:"required"`
}

// CreateTemplate 创建表单模板（草稿态）
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	userID := c.GetString("user_id")
	template, err := h.service.Create(userID, req.Name, req.Category, req.Description, req.Fields)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}

// ListTemplates 获取表单模板列表
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	total, templates, err := h.service.List(c.Query("status"), c.Query("category"), page, pageSize)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    templates,
		"total":   total,
	})
}

// GetTemplate 获取表单模板详情
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	template, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}

// UpdateTemplate 更新表单模板
// 已发布模板只接受追加式变更，破坏性变更返回400
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	template, err := h.service.Update(c.Param("id"), formsvc.TemplateUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Fields:      req.Fields,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}

// PublishTemplate 发布表单模板
func (h *TemplateHandler) PublishTemplate(c *gin.Context) {
	template, err := h.service.Publish(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}

// ArchiveTemplate 归档表单模板
func (h *TemplateHandler) ArchiveTemplate(c *gin.Context) {
	template, err := h.service.Archive(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}

// ReorderField 移动字段到指定位置
func (h *TemplateHandler) ReorderField(c *gin.Context) {
	var req ReorderFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	template, err := h.service.ReorderField(c.Param("id"), req.FieldID, *req.NewIndex)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(template))
}
