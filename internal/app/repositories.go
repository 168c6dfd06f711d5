package app

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/database"
)

// Repositories 包含所有 Repository 实例
type Repositories struct {
	FormTemplate   *repository.FormTemplateRepository
	FormSubmission *repository.FormSubmissionRepository
}

// InitializeRepositories 初始化所有 Repository
func InitializeRepositories() *Repositories {
	return &Repositories{
		FormTemplate:   repository.NewFormTemplateRepository(database.DB),
		FormSubmission: repository.NewFormSubmissionRepository(database.DB),
	}
}
