package model

import (
	"time"
)

// TemplateStatus 表单模板状态
type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "draft"     // 草稿
	TemplateStatusPublished TemplateStatus = "published" // 已发布
	TemplateStatusArchived  TemplateStatus = "archived"  // 已归档(终态，软删除)
)

// FormTemplate 表单模板
// 已发布的模板只允许追加可选字段（版本号递增），删除或改类型属于破坏性变更
type FormTemplate struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Category    string         `gorm:"type:varchar(50);index" json:"category"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TemplateStatus `gorm:"type:varchar(20);default:draft;index" json:"status"`
	Fields      FieldList      `gorm:"type:json;not null" json:"fields"`
	Version     int            `gorm:"default:1" json:"version"` // 小版本计数，新提交记录 template_version 时使用
	CreatedBy   string         `gorm:"type:varchar(50);index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (FormTemplate) TableName() string {
	return "form_templates"
}

// FieldByID 按 ID 查找字段定义
func (t *FormTemplate) FieldByID(fieldID string) (FormField, bool) {
	for _, f := range t.Fields {
		if f.ID == fieldID {
			return f, true
		}
	}
	return FormField{}, false
}
