package mention

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/event"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplaceForContent 把一条内容的提及集合替换为给定的用户列表。
// 以内容当前文本为准：编辑后不再出现的提及被删除，新增的被插入，
// 已存在的保持不变（幂等）。
func ReplaceForContent(tx *gorm.DB, ref event.TargetRef, userIDs []uint) error {
	query := tx.Where("content_kind = ? AND content_id = ?", ref.Kind, ref.ID)
	if len(userIDs) > 0 {
		query = query.Where("user_id NOT IN ?", userIDs)
	}
	if err := query.Delete(&Mention{}).Error; err != nil {
		return fmt.Errorf("无法清理过期的提及记录: %w", err)
	}

	for _, uid := range userIDs {
		m := Mention{
			ContentKind: ref.Kind,
			ContentID:   ref.ID,
			UserID:      uid,
		}
		// 重复插入同一提及是合法的无操作
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
		if err != nil {
			return fmt.Errorf("无法写入提及记录: %w", err)
		}
	}
	return nil
}

// DeleteForContent 删除一条内容拥有的全部提及记录。
// 记录已不存在时静默成功。
func DeleteForContent(tx *gorm.DB, ref event.TargetRef) error {
	err := tx.Where("content_kind = ? AND content_id = ?", ref.Kind, ref.ID).Delete(&Mention{}).Error
	if err != nil {
		return fmt.Errorf("无法删除提及记录: %w", err)
	}
	return nil
}

// UserIDsForContent 返回一条内容当前提及的全部用户ID。
func UserIDsForContent(db *gorm.DB, ref event.TargetRef) ([]uint, error) {
	var ids []uint
	err := db.Model(&Mention{}).
		Where("content_kind = ? AND content_id = ?", ref.Kind, ref.ID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
