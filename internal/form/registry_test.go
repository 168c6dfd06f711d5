package form

import (
	"testing"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// TestRegistryDescribe 测试类型查询
func TestRegistryDescribe(t *testing.T) {
	r := Default()

	spec, ok := r.Describe(model.FieldTypeSelect)
	if !ok {
		t.Fatal("Describe(select) expected spec, got none")
	}
	if spec.ValidateDefinition == nil {
		t.Error("Describe(select) expected a definition check")
	}

	if _, ok := r.Describe("hologram"); ok {
		t.Error("Describe(hologram) expected no spec for unknown type")
	}
}

// TestRegistryMultiValued 测试多值类型标记
func TestRegistryMultiValued(t *testing.T) {
	r := Default()

	multi := []model.FieldType{model.FieldTypeSearchPerson, model.FieldTypeSearchAsset}
	for _, ft := range multi {
		if spec, _ := r.Describe(ft); !spec.Multi {
			t.Errorf("Describe(%s) expected Multi=true", ft)
		}
	}

	if spec, _ := r.Describe(model.FieldTypeText); spec.Multi {
		t.Error("Describe(text) expected Multi=false")
	}
}

// TestRegistryRegisterCustomType 测试注册新类型后即可参与校验
func TestRegistryRegisterCustomType(t *testing.T) {
	r := Default()
	r.Register(FieldTypeSpec{
		Type: "rating",
		Validate: func(value interface{}, opts model.FieldOptions) string {
			n, ok := value.(float64)
			if !ok || n < 1 || n > 5 {
				return "expected a rating between 1 and 5"
			}
			return ""
		},
	})

	v := NewValidator(r)
	tpl := &model.FormTemplate{
		ID:     "tpl",
		Fields: model.FieldList{{ID: "r1", Label: "评分", Type: "rating", Order: 0}},
	}

	if errors := v.Validate(tpl, model.FieldValues{"r1": float64(4)}); len(errors) != 0 {
		t.Errorf("Validate() expected no errors for valid rating, got %v", errors)
	}
	if errors := v.Validate(tpl, model.FieldValues{"r1": float64(9)}); len(errors) != 1 {
		t.Errorf("Validate() expected one error for out-of-range rating, got %v", errors)
	}
}
