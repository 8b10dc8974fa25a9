package user

import (
	"strconv"
	"testing"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRankingTest 只搭用户表和排行投影的存储环境。
func setupRankingTest(t *testing.T) {
	t.Helper()

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存SQLite按连接隔离，必须收敛到单连接
	sqlDB.SetMaxOpenConns(1)
	database.DB = db

	require.NoError(t, database.DB.AutoMigrate(&User{}, &ReputationEvent{}))
}

func seedUser(t *testing.T, name string, points int) *User {
	t.Helper()
	u := User{
		Username:         name,
		ReputationPoints: points,
		BadgeTier:        TierFor(points),
	}
	require.NoError(t, database.DB.Create(&u).Error)
	return &u
}

func TestRankedUsersFollowsProjectionOrder(t *testing.T) {
	setupRankingTest(t)

	low := seedUser(t, "low", 7)
	high := seedUser(t, "high", 300)
	mid := seedUser(t, "mid", 42)

	require.NoError(t, WarmupCache())

	users, err := RankedUsers(50)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, high.ID, users[0].ID)
	assert.Equal(t, mid.ID, users[1].ID)
	assert.Equal(t, low.ID, users[2].ID)
	assert.Equal(t, 300, users[0].ReputationPoints)
	assert.Equal(t, TierExpert, users[0].BadgeTier)

	// limit截断只保留投影中的前几名
	users, err = RankedUsers(2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, high.ID, users[0].ID)
	assert.Equal(t, mid.ID, users[1].ID)
}

func TestRankedUsersSkipsGhostEntries(t *testing.T) {
	setupRankingTest(t)

	u := seedUser(t, "solo", 7)
	require.NoError(t, WarmupCache())

	// 投影中残留一个SQLite里不存在的条目
	require.NoError(t, database.RDB.ZAdd(database.Ctx, RankingKey, redis.Z{
		Score:  999,
		Member: strconv.FormatUint(uint64(u.ID+100), 10),
	}).Err())

	users, err := RankedUsers(50)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
}
