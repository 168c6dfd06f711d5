package forms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/api/middleware"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	formsvc "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/service/forms"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/workflow"
)

// SubmissionHandler 提交单处理器
type SubmissionHandler struct {
	service *formsvc.SubmissionService
}

// NewSubmissionHandler 创建提交单处理器
func NewSubmissionHandler(service *formsvc.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// CreateSubmissionRequest 创建草稿请求
type CreateSubmissionRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	Data       model.FieldValues `json:"data"`
}

// AutosaveRequest 自动保存请求
type AutosaveRequest struct {
	Data          model.FieldValues `json:"data" binding:"required"`
	ClientVersion int               `json:"client_version"`
}

// DecisionRequest 审批请求
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// actor 从请求上下文构造执行人
func actor(c *gin.Context) workflow.Actor {
	id, name := middleware.CurrentActor(c)
	return workflow.Actor{ID: id, Name: name}
}

// CreateSubmission 基于已发布模板创建草稿
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	submission, err := h.service.CreateDraft(actor(c), req.TemplateID, req.Data)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}

// ListSubmissions 获取提交单列表
// mine=true 只看自己的；审批人用 status=pending 看待办
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	submittedBy := c.Query("submitted_by")
	if c.Query("mine") == "true" {
		submittedBy = c.GetString("user_id")
	}

	total, submissions, err := h.service.List(
		submittedBy,
		c.Query("template_id"),
		model.SubmissionStatus(c.Query("status")),
		page, pageSize,
	)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    submissions,
		"total":   total,
	})
}

// GetSubmission 获取提交单详情（含审批记录和审计事件）
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	submission, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}

// Autosave 调度一次草稿自动保存
// 返回当前版本和编辑期的即时字段错误；错误不阻塞保存
func (h *SubmissionHandler) Autosave(c *gin.Context) {
	var req AutosaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	version, fieldErrors, err := h.service.Autosave(actor(c), c.Param("id"), req.Data, req.ClientVersion)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"version": version,
		"errors":  fieldErrors,
	}))
}

// FlushAutosave 立即落库（字段失焦、页面跳转等显式保存点）
func (h *SubmissionHandler) FlushAutosave(c *gin.Context) {
	version, err := h.service.FlushAutosave(actor(c), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"version": version}))
}

// CancelAutosave 丢弃未落库的草稿变更
func (h *SubmissionHandler) CancelAutosave(c *gin.Context) {
	if err := h.service.CancelAutosave(actor(c), c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(nil))
}

// Submit 草稿提交进入审批
// 校验不通过返回422和完整的字段错误列表
func (h *SubmissionHandler) Submit(c *gin.Context) {
	submission, fieldErrors, err := h.service.Submit(actor(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, workflow.ErrValidationFailed) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":    422,
				"message": "表单校验未通过",
				"errors":  fieldErrors,
			})
			return
		}
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}

// Approve 批准提交单
func (h *SubmissionHandler) Approve(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	submission, err := h.service.Approve(actor(c), c.Param("id"), req.Comment)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}

// Deny 驳回提交单，必须附带理由
func (h *SubmissionHandler) Deny(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	submission, err := h.service.Deny(actor(c), c.Param("id"), req.Comment)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}

// Withdraw 提交人撤回待审批的提交单
func (h *SubmissionHandler) Withdraw(c *gin.Context) {
	submission, err := h.service.Withdraw(actor(c), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Success(submission))
}
