package form

import (
	"fmt"
	"sort"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// Validator 基于模板对提交数据做逐字段校验
type Validator struct {
	registry *Registry
}

// NewValidator 创建校验器
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate 按字段顺序校验提交数据，返回全部错误
// 不短路：一次调用报告完整错误集合，前端单趟渲染
// 错误顺序与字段顺序一致，未知字段错误按字段ID排序追加在末尾，结果确定
func (v *Validator) Validate(template *model.FormTemplate, data model.FieldValues) []FieldError {
	errors := []FieldError{}

	fields := make([]model.FormField, len(template.Fields))
	copy(fields, template.Fields)
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].ID < fields[j].ID
	})

	known := make(map[string]bool, len(fields))
	for _, field := range fields {
		known[field.ID] = true

		value, present := data[field.ID]
		if !present {
			value = nil
		}

		spec, ok := v.registry.Describe(field.Type)
		if !ok {
			errors = append(errors, FieldError{
				FieldID: field.ID,
				Kind:    ErrorKindInvalidValue,
				Reason:  fmt.Sprintf("unsupported field type %q", field.Type),
			})
			continue
		}

		empty := isEmptyValue(value)
		if spec.IsEmpty != nil {
			empty = spec.IsEmpty(value)
		}

		if empty {
			if field.Required {
				errors = append(errors, FieldError{FieldID: field.ID, Kind: ErrorKindMissingRequired})
			}
			continue
		}

		if reason := spec.Validate(value, field.Options); reason != "" {
			errors = append(errors, FieldError{
				FieldID: field.ID,
				Kind:    ErrorKindInvalidValue,
				Reason:  reason,
			})
		}
	}

	// 数据键必须是模板字段的子集
	unknown := []string{}
	for key := range data {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errors = append(errors, FieldError{FieldID: key, Kind: ErrorKindUnknownField})
	}

	return errors
}

// ValidateDefinitions 模板字段定义的静态检查，发布前调用
func (v *Validator) ValidateDefinitions(fields model.FieldList) error {
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if field.ID == "" {
			return fmt.Errorf("field with empty id")
		}
		if seen[field.ID] {
			return fmt.Errorf("duplicate field id %s", field.ID)
		}
		seen[field.ID] = true

		if field.Label == "" {
			return fmt.Errorf("field %s: empty label", field.ID)
		}

		spec, ok := v.registry.Describe(field.Type)
		if !ok {
			return fmt.Errorf("field %s: unsupported field type %q", field.ID, field.Type)
		}
		if spec.ValidateDefinition != nil {
			if err := spec.ValidateDefinition(field); err != nil {
				return err
			}
		}
	}
	return nil
}
