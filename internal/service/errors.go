package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// 帖子/分组/用户/关注关系不存在
	ErrNotFound = errors.New("not found")
	// 匿名用户执行需要登录的操作
	ErrUnauthorized = errors.New("login required")
	// 非作者编辑帖子: 不报错, 跳转到帖子详情
	ErrRedirectToDetail = errors.New("only the author can edit this post")
	ErrSelfFollow       = errors.New("cannot follow yourself")

	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError 收集表单字段级别的错误信息
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// 没有字段错误时返回 nil
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
