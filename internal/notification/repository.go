package notification

import (
	"fmt"
	"strconv"

	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Redis 键名常量 ---

const (
	// UnreadCountKey 是一个 Redis Hash 的键，缓存每个用户的未读通知数。
	// Field: 用户ID的十进制字符串
	// Value: 未读数量
	UnreadCountKey = "notification:unread"
)

// adjustUnreadCounter 尽力而为地调整未读计数投影。
// 缓存漂移由预热流程兜底，失败只打印告警。
func adjustUnreadCounter(userID uint, delta int64) {
	if database.RDB == nil || !database.IsRedisHealthy() || delta == 0 {
		return
	}
	field := strconv.FormatUint(uint64(userID), 10)
	if err := database.RDB.HIncrBy(database.Ctx, UnreadCountKey, field, delta).Err(); err != nil {
		fmt.Printf("警告: 更新未读计数缓存失败 (user %d): %v\n", userID, err)
	}
}

// PersistDrafts 在给定事务内落库一批通知草稿。
// 依赖 (user_id, event_id) 唯一约束做重放去重：
// 重复投递同一事件时插入被冲突忽略，不产生第二条通知。
// 返回每个收件人的未读计数增量，投影调整不在这里发生：
// 计数器必须等事务提交后再推进，回滚的单元不能在缓存中留下痕迹。
func PersistDrafts(tx *gorm.DB, drafts []Draft) (map[uint]int64, error) {
	deltas := make(map[uint]int64, len(drafts))
	for _, d := range drafts {
		n := Notification{
			UserID:   d.UserID,
			ActorID:  d.ActorID,
			Type:     d.Type,
			Title:    d.Title,
			Message:  d.Message,
			Link:     d.Link,
			LinkKind: d.LinkKind,
			LinkID:   d.LinkID,
			EventID:  d.EventID,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&n)
		if result.Error != nil {
			if database.IsDuplicateKeyError(result.Error) {
				continue // 重放事件，静默跳过
			}
			return nil, fmt.Errorf("无法写入通知: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			deltas[d.UserID]++
		}
	}
	return deltas, nil
}

// ApplyUnreadDeltas 把一批未读计数增量应用到Redis投影。
// 必须在产生它们的事务提交之后调用。
func ApplyUnreadDeltas(deltas map[uint]int64) {
	for userID, delta := range deltas {
		adjustUnreadCounter(userID, delta)
	}
}

// ListForUser 按时间倒序返回一个用户的通知列表。
func ListForUser(db *gorm.DB, userID uint, limit int) ([]Notification, error) {
	var list []Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取通知列表: %w", err)
	}
	return list, nil
}

// MarkRead 把收件人的一条通知标记为已读。
// 只有收件人本人可以标记；重复标记是合法的无操作。
func MarkRead(db *gorm.DB, userID uint, notificationID uint) error {
	result := db.Model(&Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("无法标记通知为已读: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		adjustUnreadCounter(userID, -result.RowsAffected)
	}
	return nil
}

// MarkAllRead 把一个用户的全部未读通知标记为已读（幂等）。
func MarkAllRead(db *gorm.DB, userID uint) error {
	result := db.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("无法标记全部通知为已读: %w", result.Error)
	}
	if result.RowsAffected > 0 && database.RDB != nil && database.IsRedisHealthy() {
		field := strconv.FormatUint(uint64(userID), 10)
		if err := database.RDB.HSet(database.Ctx, UnreadCountKey, field, 0).Err(); err != nil {
			fmt.Printf("警告: 重置未读计数缓存失败 (user %d): %v\n", userID, err)
		}
	}
	return nil
}

// DeleteByRef 删除所有弱引用指向给定内容的通知。
// 行已不存在时静默成功（删除是幂等的）。
// 与PersistDrafts一样，返回未读计数增量而不直接动投影。
func DeleteByRef(tx *gorm.DB, ref event.TargetRef) (map[uint]int64, error) {
	var victims []Notification
	err := tx.Select("id", "user_id", "is_read").
		Where("link_kind = ? AND link_id = ?", ref.Kind, ref.ID).
		Find(&victims).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询待清理的通知: %w", err)
	}
	if len(victims) == 0 {
		return nil, nil
	}

	err = tx.Where("link_kind = ? AND link_id = ?", ref.Kind, ref.ID).Delete(&Notification{}).Error
	if err != nil {
		return nil, fmt.Errorf("无法删除通知: %w", err)
	}

	deltas := make(map[uint]int64)
	for _, v := range victims {
		if !v.IsRead {
			deltas[v.UserID]--
		}
	}
	return deltas, nil
}

// WarmupCache 从SQLite全量重建Redis未读计数投影。
func WarmupCache() error {
	type row struct {
		UserID uint
		Count  int64
	}
	var rows []row
	err := database.DB.Model(&Notification{}).
		Select("user_id, COUNT(*) as count").
		Where("is_read = ?", false).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("无法统计未读通知: %w", err)
	}

	pipe := database.RDB.Pipeline()
	// 先清空旧的缓存，确保数据一致性
	pipe.Del(database.Ctx, UnreadCountKey)
	for _, r := range rows {
		pipe.HSet(database.Ctx, UnreadCountKey, strconv.FormatUint(uint64(r.UserID), 10), r.Count)
	}
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热未读计数到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户的未读计数到Redis。\n", len(rows))
	return nil
}
