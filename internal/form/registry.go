package form

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// FieldTypeSpec 字段类型描述
// Validate 只校验非空值；空值的必填判断由 Validator 统一处理
type FieldTypeSpec struct {
	Type  model.FieldType
	Multi bool // 是否天然多值(多选查找)

	// Validate 校验值是否符合该类型，返回空串表示合法，否则返回原因
	Validate func(value interface{}, opts model.FieldOptions) string

	// IsEmpty 判断值是否视为"未填写"，为 nil 时使用通用规则
	IsEmpty func(value interface{}) bool

	// ValidateDefinition 字段定义的静态检查，发布模板前调用
	ValidateDefinition func(f model.FormField) error
}

// Registry 字段类型注册表
// 所有按类型分派的逻辑集中在这里，其他组件不得按类型名分支
type Registry struct {
	specs map[model.FieldType]FieldTypeSpec
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{specs: make(map[model.FieldType]FieldTypeSpec)}
}

// Register 注册字段类型
func (r *Registry) Register(spec FieldTypeSpec) {
	r.specs[spec.Type] = spec
}

// Describe 获取字段类型描述
func (r *Registry) Describe(t model.FieldType) (FieldTypeSpec, bool) {
	spec, ok := r.specs[t]
	return spec, ok
}

// Types 返回所有已注册的类型
func (r *Registry) Types() []model.FieldType {
	types := make([]model.FieldType, 0, len(r.specs))
	for t := range r.specs {
		types = append(types, t)
	}
	return types
}

// isEmptyValue 通用空值判断：nil、空串、空数组
func isEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// asString 将 JSON 解码后的值转字符串
func asString(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// validateText 文本类字段：必须是字符串，可选最大长度
func validateText(value interface{}, opts model.FieldOptions) string {
	s, ok := asString(value)
	if !ok {
		return "expected a string"
	}
	if opts.MaxLength > 0 && len([]rune(s)) > opts.MaxLength {
		return fmt.Sprintf("exceeds max length %d", opts.MaxLength)
	}
	return ""
}

// validateNumber 数字字段：接受 JSON number 或十进制字符串，支持 min/max
func validateNumber(value interface{}, opts model.FieldOptions) string {
	var d decimal.Decimal
	var err error

	switch v := value.(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		d, err = decimal.NewFromString(v)
		if err != nil {
			return "not a valid number"
		}
	default:
		return "expected a number"
	}

	if opts.Min != "" {
		if min, err := decimal.NewFromString(opts.Min); err == nil && d.LessThan(min) {
			return fmt.Sprintf("below minimum %s", opts.Min)
		}
	}
	if opts.Max != "" {
		if max, err := decimal.NewFromString(opts.Max); err == nil && d.GreaterThan(max) {
			return fmt.Sprintf("above maximum %s", opts.Max)
		}
	}
	return ""
}

// validateDate 日期字段：YYYY-MM-DD
func validateDate(value interface{}, opts model.FieldOptions) string {
	s, ok := asString(value)
	if !ok {
		return "expected a date string"
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "not a valid date (want YYYY-MM-DD)"
	}
	return ""
}

// validateTime 时间字段：HH:MM 或 HH:MM:SS
func validateTime(value interface{}, opts model.FieldOptions) string {
	s, ok := asString(value)
	if !ok {
		return "expected a time string"
	}
	if _, err := time.Parse("15:04", s); err != nil {
		if _, err := time.Parse("15:04:05", s); err != nil {
			return "not a valid time (want HH:MM)"
		}
	}
	return ""
}

// validateCheckbox 复选框：必须是布尔值
func validateCheckbox(value interface{}, opts model.FieldOptions) string {
	if _, ok := value.(bool); !ok {
		return "expected a boolean"
	}
	return ""
}

// validateSelect 下拉单选：必须是选项列表中的字符串
func validateSelect(value interface{}, opts model.FieldOptions) string {
	s, ok := asString(value)
	if !ok {
		return "expected a string"
	}
	for _, opt := range opts.Options {
		if s == opt {
			return ""
		}
	}
	return fmt.Sprintf("%q is not one of the allowed options", s)
}

// validateLookup 查找类字段(人员/资产)：单选为ID字符串，多选为ID字符串数组
func validateLookup(value interface{}, opts model.FieldOptions) string {
	if opts.Multiple {
		items, ok := value.([]interface{})
		if !ok {
			return "expected a list of ids"
		}
		for _, item := range items {
			if s, ok := item.(string); !ok || s == "" {
				return "expected a list of non-empty id strings"
			}
		}
		return ""
	}

	s, ok := asString(value)
	if !ok {
		return "expected an id string"
	}
	if s == "" {
		return "expected a non-empty id"
	}
	return ""
}

// validateReference 签名/文件：外部存储的非空引用
func validateReference(value interface{}, opts model.FieldOptions) string {
	s, ok := asString(value)
	if !ok || s == "" {
		return "expected a non-empty reference"
	}
	return ""
}

// requireOptions select 定义必须携带非空选项列表
func requireOptions(f model.FormField) error {
	if len(f.Options.Options) == 0 {
		return fmt.Errorf("field %s: select requires a non-empty options list", f.ID)
	}
	seen := make(map[string]bool, len(f.Options.Options))
	for _, opt := range f.Options.Options {
		if opt == "" {
			return fmt.Errorf("field %s: empty option value", f.ID)
		}
		if seen[opt] {
			return fmt.Errorf("field %s: duplicate option %q", f.ID, opt)
		}
		seen[opt] = true
	}
	return nil
}

// validateNumberBounds number 定义的 min/max 必须是合法十进制且 min <= max
func validateNumberBounds(f model.FormField) error {
	var min, max decimal.Decimal
	var err error
	hasMin, hasMax := f.Options.Min != "", f.Options.Max != ""

	if hasMin {
		if min, err = decimal.NewFromString(f.Options.Min); err != nil {
			return fmt.Errorf("field %s: invalid min %q", f.ID, f.Options.Min)
		}
	}
	if hasMax {
		if max, err = decimal.NewFromString(f.Options.Max); err != nil {
			return fmt.Errorf("field %s: invalid max %q", f.ID, f.Options.Max)
		}
	}
	if hasMin && hasMax && min.GreaterThan(max) {
		return fmt.Errorf("field %s: min %s greater than max %s", f.ID, f.Options.Min, f.Options.Max)
	}
	return nil
}

// Default 构建包含全部内置字段类型的注册表
func Default() *Registry {
	r := NewRegistry()

	r.Register(FieldTypeSpec{Type: model.FieldTypeText, Validate: validateText})
	r.Register(FieldTypeSpec{Type: model.FieldTypeTextarea, Validate: validateText})
	r.Register(FieldTypeSpec{Type: model.FieldTypeNumber, Validate: validateNumber, ValidateDefinition: validateNumberBounds})
	r.Register(FieldTypeSpec{Type: model.FieldTypeDate, Validate: validateDate})
	r.Register(FieldTypeSpec{Type: model.FieldTypeTime, Validate: validateTime})
	r.Register(FieldTypeSpec{
		Type:     model.FieldTypeCheckbox,
		Validate: validateCheckbox,
		// 必填复选框要求勾选，false 视为未填写
		IsEmpty: func(value interface{}) bool {
			if value == nil {
				return true
			}
			b, ok := value.(bool)
			return ok && !b
		},
	})
	r.Register(FieldTypeSpec{Type: model.FieldTypeSelect, Validate: validateSelect, ValidateDefinition: requireOptions})
	r.Register(FieldTypeSpec{Type: model.FieldTypeSearchPerson, Multi: true, Validate: validateLookup})
	r.Register(FieldTypeSpec{Type: model.FieldTypeSearchAsset, Multi: true, Validate: validateLookup})
	r.Register(FieldTypeSpec{Type: model.FieldTypeSignature, Validate: validateReference})
	r.Register(FieldTypeSpec{Type: model.FieldTypeFile, Validate: validateReference})

	return r
}
