package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"gorm.io/gorm"
)

// --- 数据模型 ---

// ProcessedEvent 定义了已处理事件ID在数据库中的存储结构。
// SQLite中的这张表是重放判定的权威数据，Redis只是读路径的缓存。
type ProcessedEvent struct {
	EventID   string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
}

// --- 常量与全局变量 ---

const (
	// processedSetKey 是一个 Redis Set 的键，缓存已处理的事件ID
	processedSetKey = "engine:processed_events"
)

var replayMutex sync.Mutex

// --- 核心功能 ---

// wasProcessedFast 只查Redis缓存做快速重放判定。
// 缓存未命中不代表事件没处理过，权威判定在事务内由主键冲突给出。
func wasProcessedFast(eventID string) bool {
	if database.RDB == nil || !database.IsRedisHealthy() {
		return false
	}
	exists, err := database.RDB.SIsMember(database.Ctx, processedSetKey, eventID).Result()
	if err != nil {
		return false
	}
	return exists
}

// checkAndRecordEvent 在给定事务内把事件ID记为已处理。
// 返回true表示该事件此前已被处理（重放）。
// 记录与衍生状态写入共享同一事务：事务回滚时记录一并消失，
// 事件之后的重试不会被误判为重放。
func checkAndRecordEvent(tx *gorm.DB, eventID string) (bool, error) {
	record := ProcessedEvent{EventID: eventID}
	if err := tx.Create(&record).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("无法记录已处理事件: %w", err)
	}
	return false, nil
}

// cacheProcessedEventID 在事务提交后把事件ID写入Redis缓存。
// 必须在提交后调用：提交前写缓存会让回滚后的重试被快速路径误杀。
func cacheProcessedEventID(eventID string) {
	if database.RDB == nil || !database.IsRedisHealthy() {
		return
	}
	if err := database.RDB.SAdd(database.Ctx, processedSetKey, eventID).Err(); err != nil {
		fmt.Printf("警告: 写入已处理事件缓存失败: %v\n", err)
	}
}

// RecoverReplayCache 从SQLite分批重建Redis中的已处理事件缓存。
// 在启动和Redis恢复后调用。
func RecoverReplayCache() error {
	fmt.Println("正在从SQLite重建事件重放缓存...")

	replayMutex.Lock()
	defer replayMutex.Unlock()

	// 1. 擦除旧的Redis数据
	if err := database.RDB.Del(database.Ctx, processedSetKey).Err(); err != nil {
		return fmt.Errorf("擦除旧的事件重放缓存失败: %w", err)
	}

	// 2. 从SQLite分批读取所有已处理的事件ID并写回Redis
	const batchSize = 10000

	eventCount := 0
	var lastProcessedID string // 在字符串UUID上分页，按字母顺序
	var batch []string

	for i := 1; ; i++ {
		err := database.DB.Model(&ProcessedEvent{}).
			Where("event_id > ?", lastProcessedID).
			Order("event_id asc").
			Limit(batchSize).
			Pluck("event_id", &batch).Error
		if err != nil {
			return fmt.Errorf("分批从SQLite读取事件ID失败 (batch %d): %w", i, err)
		}
		if len(batch) == 0 {
			break
		}

		interfaceBatch := make([]interface{}, len(batch))
		for j, id := range batch {
			interfaceBatch[j] = id
		}
		if err := database.RDB.SAdd(database.Ctx, processedSetKey, interfaceBatch...).Err(); err != nil {
			return fmt.Errorf("批量写回Redis失败 (batch %d): %w", i, err)
		}

		eventCount += len(batch)
		if len(batch) < batchSize {
			break
		}

		lastProcessedID = batch[len(batch)-1]
		batch = batch[:0]
	}

	fmt.Printf("事件重放缓存：成功从SQLite恢复了 %d 个事件ID。\n", eventCount)
	return nil
}
