package engine

import (
	"errors"
	"fmt"
)

// 引擎边界的错误分类。
// 写入路径根据类别决定对外表现：校验失败和良性竞态丢弃事件，
// 唯一约束冲突以409上抛，一致性失败回滚整个写入单元。
var (
	// ErrValidation 表示事件结构不合法，事件被丢弃且无任何副作用
	ErrValidation = errors.New("事件校验失败")

	// ErrNotFound 表示目标实体在事件产生到处理之间消失，属于良性竞态
	ErrNotFound = errors.New("目标不存在")

	// ErrConflict 表示唯一约束冲突，例如重复投票
	ErrConflict = errors.New("操作冲突")

	// ErrConsistency 表示衍生状态写入失败，必须连同主写入一起回滚
	ErrConsistency = errors.New("一致性写入失败")
)

// NewValidationError 构造一个带上下文的校验错误
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError 构造一个带上下文的目标缺失错误
func NewNotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// NewConflictError 构造一个带上下文的冲突错误
func NewConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// IsValidation 判断错误是否属于校验失败
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound 判断错误是否属于良性竞态
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict 判断错误是否属于唯一约束冲突
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
