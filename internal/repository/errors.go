package repository

import (
	"errors"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")

	// ErrConflict 乐观锁冲突：写入目标的版本已过期，调用方需要重读后重试
	ErrConflict = errors.New("stale version: concurrent update detected")

	// ErrNotDraft 提交单已不是草稿，补丁被拒绝；重读版本也无法恢复，调用方不应重试
	ErrNotDraft = errors.New("submission is not a draft")
)
