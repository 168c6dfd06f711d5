package app

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/api/handler/forms"
)

// Handlers 包含所有 Handler 实例
type Handlers struct {
	Template   *forms.TemplateHandler
	Submission *forms.SubmissionHandler
}

// InitializeHandlers 初始化所有 Handler
func InitializeHandlers(services *Services) *Handlers {
	return &Handlers{
		Template:   forms.NewTemplateHandler(services.Template, services.Registry),
		Submission: forms.NewSubmissionHandler(services.Submission),
	}
}
