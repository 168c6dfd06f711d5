package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray 字符串数组，以 JSON 列形式存储
type StringArray []string

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// User 平台用户
// 认证由外部完成，这里只承载 JWT 中的身份信息和审批授权所需的角色/班组
type User struct {
	ID       string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username string      `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	FullName string      `json:"fullName" gorm:"type:varchar(100)"`
	Email    string      `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Role     string      `json:"role" gorm:"type:varchar(20);default:'worker'"` // admin, manager, worker
	TeamIDs  StringArray `json:"teamIds" gorm:"type:json"`                      // 所属班组
	Status   string      `json:"status" gorm:"type:varchar(20);default:'active';index"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
