package form

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// ErrFieldNotFound 目标字段不在字段集内
var ErrFieldNotFound = errors.New("field not found")

// Reindex 规范化字段顺序：按 Order 稳定排序（ID 决胜），重新编号为 0..N-1
// 对已规范化的序列是幂等的
func Reindex(fields model.FieldList) model.FieldList {
	result := make(model.FieldList, len(fields))
	copy(result, fields)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})

	for i := range result {
		result[i].Order = i
	}
	return result
}

// MoveField 将指定字段移动到 newIndex（越界时收敛到 [0, N-1]），然后重新编号
func MoveField(fields model.FieldList, fieldID string, newIndex int) (model.FieldList, error) {
	normalized := Reindex(fields)

	idx := -1
	for i, f := range normalized {
		if f.ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("field %s: %w", fieldID, ErrFieldNotFound)
	}

	moved := normalized[idx]
	rest := append(normalized[:idx:idx], normalized[idx+1:]...)

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(rest) {
		newIndex = len(rest)
	}

	result := make(model.FieldList, 0, len(normalized))
	result = append(result, rest[:newIndex]...)
	result = append(result, moved)
	result = append(result, rest[newIndex:]...)

	for i := range result {
		result[i].Order = i
	}
	return result, nil
}
