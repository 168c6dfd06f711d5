package model

import (
	"database/sql/driver"
	"encoding/json"
)

// FieldType 表单字段类型
type FieldType string

const (
	FieldTypeText         FieldType = "text"          // 单行文本
	FieldTypeTextarea     FieldType = "textarea"      // 多行文本
	FieldTypeNumber       FieldType = "number"        // 数字
	FieldTypeDate         FieldType = "date"          // 日期
	FieldTypeTime         FieldType = "time"          // 时间
	FieldTypeCheckbox     FieldType = "checkbox"      // 复选框
	FieldTypeSelect       FieldType = "select"        // 下拉单选
	FieldTypeSearchPerson FieldType = "search_person" // 人员查找(单/多选)
	FieldTypeSearchAsset  FieldType = "search_asset"  // 资产查找(设备/车辆)
	FieldTypeSignature    FieldType = "signature"     // 电子签名
	FieldTypeFile         FieldType = "file"          // 文件引用
)

// FieldOptions 字段类型专属配置
// 每种字段类型只使用自己有效的配置项，其余保持零值
type FieldOptions struct {
	Options     []string `json:"options,omitempty"`     // select: 可选项列表
	Multiple    bool     `json:"multiple,omitempty"`    // search_person/search_asset: 是否多选
	MaxLength   int      `json:"max_length,omitempty"`  // text/textarea: 最大长度
	Min         string   `json:"min,omitempty"`         // number: 最小值(十进制字符串)
	Max         string   `json:"max,omitempty"`         // number: 最大值(十进制字符串)
	Placeholder string   `json:"placeholder,omitempty"` // 占位提示
}

// FormField 表单字段定义
// Order 在模板内保持 0..N-1 连续无空洞；ID 在编辑过程中保持稳定，
// 用于拖拽排序和提交数据回填
type FormField struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Type     FieldType    `json:"type"`
	Required bool         `json:"required"`
	Order    int          `json:"order"`
	Options  FieldOptions `json:"options"`
}

// FieldList 字段定义列表，以 JSON 列形式存储在模板表中
type FieldList []FormField

// Scan 实现 sql.Scanner 接口
func (l *FieldList) Scan(value interface{}) error {
	if value == nil {
		*l = FieldList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, l)
}

// Value 实现 driver.Valuer 接口
func (l FieldList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// FieldValues 提交数据，fieldID -> 字段值，以 JSON 列形式存储
type FieldValues map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (v *FieldValues) Scan(value interface{}) error {
	if value == nil {
		*v = FieldValues{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, v)
}

// Value 实现 driver.Valuer 接口
func (v FieldValues) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "{}", nil
	}
	return json.Marshal(v)
}
