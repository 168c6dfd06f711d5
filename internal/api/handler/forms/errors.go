package forms

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/autosave"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	formsvc "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/service/forms"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/workflow"
)

// writeDomainError 把领域错误映射为HTTP状态码并写出错误响应
// 校验失败(422)带字段错误列表，由调用方单独处理，不走这里
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, model.Error(404, err.Error()))
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, model.Error(409, err.Error()))
	case errors.Is(err, workflow.ErrUnauthorized):
		c.JSON(http.StatusForbidden, model.Error(403, err.Error()))
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, formsvc.ErrBreakingChange),
		errors.Is(err, formsvc.ErrInvalidState),
		errors.Is(err, repository.ErrNotDraft),
		errors.Is(err, form.ErrFieldNotFound):
		c.JSON(http.StatusBadRequest, model.Error(400, err.Error()))
	case errors.Is(err, autosave.ErrRetryExhausted):
		model.HandleError(c, http.StatusInternalServerError, err, "草稿保存重试耗尽")
	default:
		model.HandleError(c, http.StatusInternalServerError, err)
	}
}
