package form

// ErrorKind 字段级校验错误类型
type ErrorKind string

const (
	ErrorKindMissingRequired ErrorKind = "missing_required" // 必填项缺失
	ErrorKindInvalidValue    ErrorKind = "invalid_value"    // 值不符合字段类型
	ErrorKindUnknownField    ErrorKind = "unknown_field"    // 数据中存在模板未定义的字段
)

// FieldError 单个字段的校验错误
// Reason 仅在 invalid_value 时携带类型相关的具体原因
type FieldError struct {
	FieldID string    `json:"fieldId"`
	Kind    ErrorKind `json:"kind"`
	Reason  string    `json:"reason,omitempty"`
}
