package user

import (
	"fmt"
	"strconv"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// --- Redis 键名常量 ---

const (
	// RankingKey 是一个 Redis Sorted Set 的键，用于存储用户的声望排行。
	// Score: 用户当前声望值
	// Member: 用户ID的十进制字符串
	RankingKey = "user:reputation:ranking"
)

// RefreshRankingEntry 把一个用户的最新声望写入Redis排行投影。
// 排行是可重建的投影，写入失败只打印告警，不影响主事务。
func RefreshRankingEntry(userID uint, points int) {
	if database.RDB == nil || !database.IsRedisHealthy() {
		return
	}
	member := strconv.FormatUint(uint64(userID), 10)
	err := database.RDB.ZAdd(database.Ctx, RankingKey, redis.Z{
		Score:  float64(points),
		Member: member,
	}).Err()
	if err != nil {
		fmt.Printf("警告: 更新声望排行缓存失败 (user %d): %v\n", userID, err)
	}
}

// TopRanking 读取排行投影中声望最高的前limit名用户ID及其分数。
func TopRanking(limit int64) ([]redis.Z, error) {
	return database.RDB.ZRevRangeWithScores(database.Ctx, RankingKey, 0, limit-1).Result()
}

// RankedUsers 按排行投影的顺序批量读取前limit名用户。
// ID来自Redis，用户数据从SQLite一次查出，避免逐条回表。
// 投影中残留的幽灵条目（用户已删除）被静默跳过，等待下次预热清除。
func RankedUsers(limit int64) ([]User, error) {
	zs, err := TopRanking(limit)
	if err != nil {
		return nil, fmt.Errorf("无法读取排行投影: %w", err)
	}

	ids := make([]uint, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var users []User
	if err := database.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("无法按排行批量读取用户: %w", err)
	}

	byID := make(map[uint]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	ordered := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// WarmupCache 从SQLite全量重建Redis声望排行。
// 在启动和Redis恢复后调用，保证投影与权威数据一致。
func WarmupCache() error {
	var users []User
	if err := database.DB.Select("id", "reputation_points").Find(&users).Error; err != nil {
		return fmt.Errorf("无法从SQLite读取用户声望: %w", err)
	}

	pipe := database.RDB.Pipeline()
	// 先清空旧的缓存，确保数据一致性
	pipe.Del(database.Ctx, RankingKey)
	for _, u := range users {
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
			Score:  float64(u.ReputationPoints),
			Member: strconv.FormatUint(uint64(u.ID), 10),
		})
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热声望排行到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户的声望排行到Redis。\n", len(users))
	return nil
}
