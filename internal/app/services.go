package app

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/auth"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/autosave"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/notification"
	formsvc "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/service/forms"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/workflow"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
)

// Services 包含所有 Service 实例
type Services struct {
	Registry   *form.Registry
	Validator  *form.Validator
	Tokens     *auth.TokenService
	Guard      *auth.CasbinGuard
	Engine     *workflow.Engine
	Autosave   *autosave.Coordinator
	Template   *formsvc.TemplateService
	Submission *formsvc.SubmissionService
}

// InitializeServices 初始化所有 Service
func InitializeServices(repos *Repositories, cfg *config.Config, notifier *notification.Manager) *Services {
	registry := form.Default()
	validator := form.NewValidator(registry)
	guard := auth.NewCasbinGuard()

	engine := workflow.NewEngine(repos.FormSubmission, repos.FormTemplate, guard, validator, notifier)
	coordinator := autosave.NewCoordinator(repos.FormSubmission, &cfg.Autosave)

	return &Services{
		Registry:   registry,
		Validator:  validator,
		Tokens:     auth.NewTokenService(cfg.Security.JWTSecret),
		Guard:      guard,
		Engine:     engine,
		Autosave:   coordinator,
		Template:   formsvc.NewTemplateService(repos.FormTemplate, validator),
		Submission: formsvc.NewSubmissionService(repos.FormSubmission, repos.FormTemplate, engine, coordinator, validator),
	}
}
