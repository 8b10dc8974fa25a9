package vote_test

import (
	"testing"

	"github.com/SlpAus/devboard-backend/internal/content"
	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/notification"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/SlpAus/devboard-backend/internal/platform/startup"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/SlpAus/devboard-backend/internal/vote"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest 用内存SQLite和miniredis搭起完整的应用环境。
func setupTest(t *testing.T) {
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

	require.NoError(t, startup.InitializeApplication())
}

func mustUser(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := user.CreateUser(database.DB, name)
	require.NoError(t, err)
	return u
}

func mustQuestion(t *testing.T, authorID uint) *content.Question {
	t.Helper()
	q, err := content.CreateQuestion(authorID, "如何正确配置连接池", "正文")
	require.NoError(t, err)
	return q
}

func reputationOf(t *testing.T, id uint) int {
	t.Helper()
	u, err := user.GetByID(database.DB, id)
	require.NoError(t, err)
	return u.ReputationPoints
}

func TestCastUpvoteOnQuestion(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueUp))

	// 提问+7，问题被赞+5
	assert.Equal(t, 12, reputationOf(t, author.ID))

	var got content.Question
	require.NoError(t, database.DB.First(&got, q.ID).Error)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 0, got.Downvotes)

	// 作者收到投票通知
	list, err := notification.ListForUser(database.DB, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeVote, list[0].Type)
}

func TestDuplicateVoteIsConflict(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueUp))
	err := vote.Cast(voter.ID, ref, vote.ValueUp)
	assert.True(t, engine.IsConflict(err))

	// 冲突不产生任何副作用
	assert.Equal(t, 12, reputationOf(t, author.ID))
	var got content.Question
	require.NoError(t, database.DB.First(&got, q.ID).Error)
	assert.Equal(t, 1, got.Upvotes)
}

func TestFlipVote(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueUp))
	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueDown))

	// 7 + 5 - 5 - 3 = 4：翻转施加的是精确逆量，不是简单叠加
	assert.Equal(t, 4, reputationOf(t, author.ID))

	var got content.Question
	require.NoError(t, database.DB.First(&got, q.ID).Error)
	assert.Equal(t, 0, got.Upvotes)
	assert.Equal(t, 1, got.Downvotes)

	// 仍然只有一条投票记录
	var count int64
	require.NoError(t, database.DB.Model(&vote.Vote{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemoveVote(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueUp))
	require.NoError(t, vote.Remove(voter.ID, ref))

	// 撤票后声望回到提问后的状态
	assert.Equal(t, 7, reputationOf(t, author.ID))
	var got content.Question
	require.NoError(t, database.DB.First(&got, q.ID).Error)
	assert.Equal(t, 0, got.Upvotes)

	// 再次撤票没有可撤的记录
	err := vote.Remove(voter.ID, ref)
	assert.True(t, engine.IsNotFound(err))
}

func TestVoteOnDeletedContent(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	require.NoError(t, content.DeleteContent(author.ID, ref))

	err := vote.Cast(voter.ID, ref, vote.ValueUp)
	assert.True(t, engine.IsNotFound(err))
}

func TestCommentVoteCarriesNoReputation(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q := mustQuestion(t, author.ID)
	c, err := content.CreateComment(author.ID, event.TargetRef{Kind: event.KindQuestion, ID: q.ID}, "补充说明")
	require.NoError(t, err)

	ref := event.TargetRef{Kind: event.KindComment, ID: c.ID}
	require.NoError(t, vote.Cast(voter.ID, ref, vote.ValueUp))

	// 评论投票更新聚合并通知作者，但不计分
	assert.Equal(t, 7, reputationOf(t, author.ID))
	var got content.Comment
	require.NoError(t, database.DB.First(&got, c.ID).Error)
	assert.Equal(t, 1, got.Upvotes)
}
