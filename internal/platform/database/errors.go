package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyError 判断一个数据库错误是否由唯一约束冲突引起。
// GORM在开启TranslateError后会返回ErrDuplicatedKey，
// 但部分驱动路径仍会透传原始错误，因此同时做字符串匹配兜底。
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}

// IsRetryableError 判断一个数据库错误是否为瞬时错误，值得在退避后重试。
// SQLite在并发写入时会返回锁忙错误，这类错误重试通常能成功。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "i/o timeout") {
		return true
	}

	return false
}
