package vote

import (
	"errors"
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/content"
	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cast 为一个用户对一条内容投票或改票。
// 整个操作是一个写入单元：目标行先被锁定，投票聚合、声望和通知
// 在同一事务中落盘。先删除后到达的投票会以目标缺失失败，而不是留下孤儿。
func Cast(voterID uint, target event.TargetRef, value int) error {
	if value != ValueUp && value != ValueDown {
		return engine.NewValidationError("无效的投票方向: %d", value)
	}

	return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		// 锁定目标行，串行化同一内容上的并发投票
		if _, err := content.ResolveForUpdate(tx, target); err != nil {
			return nil, err
		}

		var existing Vote
		err := tx.Where("voter_id = ? AND target_kind = ? AND target_id = ?",
			voterID, target.Kind, target.ID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 首次投票
			v := Vote{VoterID: voterID, TargetKind: target.Kind, TargetID: target.ID, Value: value}
			if err := tx.Create(&v).Error; err != nil {
				if database.IsDuplicateKeyError(err) {
					// 并发写入抢先插入了同一票
					return nil, engine.NewConflictError("已对该内容投过票")
				}
				return nil, fmt.Errorf("无法写入投票: %w", err)
			}
			if err := adjustCounts(tx, target, value, 0); err != nil {
				return nil, err
			}
			return []event.Event{{
				ID:        uuid.NewString(),
				Type:      event.TypeVoteCast,
				ActorID:   voterID,
				Target:    target,
				VoteValue: value,
			}}, nil

		case err != nil:
			return nil, fmt.Errorf("查询已有投票失败: %w", err)

		case existing.Value == value:
			// 同方向重复投票是冲突，向调用方明示
			return nil, engine.NewConflictError("已对该内容投过票")

		default:
			// 改票：更新行并施加净聚合变化
			oldValue := existing.Value
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return nil, fmt.Errorf("无法更新投票: %w", err)
			}
			if err := adjustCounts(tx, target, value, oldValue); err != nil {
				return nil, err
			}
			return []event.Event{{
				ID:           uuid.NewString(),
				Type:         event.TypeVoteChanged,
				ActorID:      voterID,
				Target:       target,
				VoteValue:    value,
				OldVoteValue: oldValue,
			}}, nil
		}
	})
}

// Remove 撤销一个用户对一条内容的投票。
// 没有可撤的票时返回可被识别的目标缺失错误。
func Remove(voterID uint, target event.TargetRef) error {
	return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		if _, err := content.ResolveForUpdate(tx, target); err != nil {
			return nil, err
		}

		var existing Vote
		err := tx.Where("voter_id = ? AND target_kind = ? AND target_id = ?",
			voterID, target.Kind, target.ID).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, engine.NewNotFoundError("没有可撤销的投票")
			}
			return nil, fmt.Errorf("查询已有投票失败: %w", err)
		}

		if err := tx.Delete(&existing).Error; err != nil {
			return nil, fmt.Errorf("无法删除投票: %w", err)
		}
		if err := adjustCounts(tx, target, 0, existing.Value); err != nil {
			return nil, err
		}

		return []event.Event{{
			ID:           uuid.NewString(),
			Type:         event.TypeVoteRemoved,
			ActorID:      voterID,
			Target:       target,
			OldVoteValue: existing.Value,
		}}, nil
	})
}

// adjustCounts 把投票方向变化换算成聚合列的增量。
// newValue或oldValue为0表示没有对应的新票或旧票。
func adjustCounts(tx *gorm.DB, target event.TargetRef, newValue, oldValue int) error {
	dUp, dDown := 0, 0
	switch oldValue {
	case ValueUp:
		dUp--
	case ValueDown:
		dDown--
	}
	switch newValue {
	case ValueUp:
		dUp++
	case ValueDown:
		dDown++
	}
	return content.AdjustVoteCounts(tx, target, dUp, dDown)
}

// PurgeForContent 删除指向一条内容的全部投票记录（幂等）。
// 通过启动注册供引擎的孤儿清理调用。
func PurgeForContent(tx *gorm.DB, ref event.TargetRef) error {
	err := tx.Where("target_kind = ? AND target_id = ?", ref.Kind, ref.ID).Delete(&Vote{}).Error
	if err != nil {
		return fmt.Errorf("无法删除投票记录: %w", err)
	}
	return nil
}
