package engine_test

import (
	"strconv"
	"testing"

	"github.com/SlpAus/devboard-backend/internal/content"
	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/mention"
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

func reputationOf(t *testing.T, id uint) int {
	t.Helper()
	u, err := user.GetByID(database.DB, id)
	require.NoError(t, err)
	return u.ReputationPoints
}

func ledgerCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.DB.Model(&user.ReputationEvent{}).Count(&count).Error)
	return count
}

func TestReplayIsNoOp(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")

	e := event.Event{
		ID:      "11111111-1111-1111-1111-111111111111",
		Type:    event.TypeQuestionPosted,
		ActorID: author.ID,
		Target:  event.TargetRef{Kind: event.KindQuestion, ID: 1},
	}

	run := func() error {
		return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
			return []event.Event{e}, nil
		})
	}

	require.NoError(t, run())
	assert.Equal(t, 7, reputationOf(t, author.ID))
	assert.EqualValues(t, 1, ledgerCount(t))

	// 同一事件再次投递：声望不重复累计，账本不追加
	require.NoError(t, run())
	assert.Equal(t, 7, reputationOf(t, author.ID))
	assert.EqualValues(t, 1, ledgerCount(t))
}

func TestReplaySurvivesRedisLoss(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")

	e := event.Event{
		ID:      "22222222-2222-2222-2222-222222222222",
		Type:    event.TypeQuestionPosted,
		ActorID: author.ID,
		Target:  event.TargetRef{Kind: event.KindQuestion, ID: 1},
	}
	require.NoError(t, engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		return []event.Event{e}, nil
	}))

	// 模拟Redis重启丢掉快速路径缓存：SQLite中的权威记录仍然挡住重放
	require.NoError(t, database.RDB.FlushAll(database.Ctx).Err())
	require.NoError(t, engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		return []event.Event{e}, nil
	}))
	assert.Equal(t, 7, reputationOf(t, author.ID))
	assert.EqualValues(t, 1, ledgerCount(t))

	// 恢复流程把缓存重建回来
	require.NoError(t, engine.RecoverReplayCache())
	exists, err := database.RDB.SIsMember(database.Ctx, "engine:processed_events", e.ID).Result()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUnknownEventTypeIsNoOp(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")

	err := engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		return []event.Event{{
			ID:      "33333333-3333-3333-3333-333333333333",
			Type:    "question_featured", // 引擎不认识的新事件类型
			ActorID: author.ID,
		}}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, reputationOf(t, author.ID))
	assert.EqualValues(t, 0, ledgerCount(t))
	list, err := notification.ListForUser(database.DB, author.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAcceptAnswerIsIdempotent(t *testing.T) {
	setupTest(t)
	asker := mustUser(t, "asker")
	answerer := mustUser(t, "answerer")

	q, err := content.CreateQuestion(asker.ID, "如何优雅地停机", "正文")
	require.NoError(t, err)
	a, err := content.CreateAnswer(answerer.ID, q.ID, "用两级生命周期管理器")
	require.NoError(t, err)

	require.NoError(t, content.AcceptAnswer(asker.ID, a.ID))
	assert.Equal(t, 10, reputationOf(t, answerer.ID))

	// 重复采纳同一回答是无操作
	require.NoError(t, content.AcceptAnswer(asker.ID, a.ID))
	assert.Equal(t, 10, reputationOf(t, answerer.ID))

	list, err := notification.ListForUser(database.DB, answerer.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeAcceptedAnswer, list[0].Type)
}

func TestDeleteAnswerCascade(t *testing.T) {
	setupTest(t)
	asker := mustUser(t, "asker")
	answerer := mustUser(t, "answerer")
	voter := mustUser(t, "voter")

	q, err := content.CreateQuestion(asker.ID, "孤儿清理如何触发", "正文")
	require.NoError(t, err)
	a, err := content.CreateAnswer(answerer.ID, q.ID, "在删除事务内同步清理")
	require.NoError(t, err)
	answerRef := event.TargetRef{Kind: event.KindAnswer, ID: a.ID}

	require.NoError(t, vote.Cast(voter.ID, answerRef, vote.ValueUp))
	require.NoError(t, content.AcceptAnswer(asker.ID, a.ID))
	c, err := content.CreateComment(asker.ID, answerRef, "这个思路不错")
	require.NoError(t, err)

	repBefore := reputationOf(t, answerer.ID) // 3(被赞) + 10(被采纳)
	require.Equal(t, 13, repBefore)

	require.NoError(t, content.DeleteContent(answerer.ID, answerRef))

	// 回答和它的评论都被删除
	assert.Error(t, database.DB.First(&content.Answer{}, a.ID).Error)
	assert.Error(t, database.DB.First(&content.Comment{}, c.ID).Error)

	// 指向回答的投票记录被清空
	var voteCount int64
	require.NoError(t, database.DB.Model(&vote.Vote{}).Count(&voteCount).Error)
	assert.EqualValues(t, 0, voteCount)

	// 采纳指针被清除
	var gotQ content.Question
	require.NoError(t, database.DB.First(&gotQ, q.ID).Error)
	assert.Nil(t, gotQ.AcceptedAnswerID)

	// 弱引用指向被删内容的通知一并消失
	var notifCount int64
	require.NoError(t, database.DB.Model(&notification.Notification{}).
		Where("link_kind = ? AND link_id = ?", event.KindAnswer, a.ID).
		Count(&notifCount).Error)
	assert.EqualValues(t, 0, notifCount)

	// 已经落账的声望不随内容删除回收
	assert.Equal(t, 13, reputationOf(t, answerer.ID))
}

func TestDeleteQuestionCascade(t *testing.T) {
	setupTest(t)
	asker := mustUser(t, "asker")
	answerer := mustUser(t, "answerer")

	q, err := content.CreateQuestion(asker.ID, "整棵树的删除", "正文")
	require.NoError(t, err)
	a, err := content.CreateAnswer(answerer.ID, q.ID, "回答")
	require.NoError(t, err)
	_, err = content.CreateComment(answerer.ID, event.TargetRef{Kind: event.KindQuestion, ID: q.ID}, "问题下的评论")
	require.NoError(t, err)
	_, err = content.CreateComment(asker.ID, event.TargetRef{Kind: event.KindAnswer, ID: a.ID}, "回答下的评论")
	require.NoError(t, err)
	require.NoError(t, content.AcceptAnswer(asker.ID, a.ID))
	require.Equal(t, 10, reputationOf(t, answerer.ID))

	require.NoError(t, content.DeleteContent(asker.ID, event.TargetRef{Kind: event.KindQuestion, ID: q.ID}))

	var qCount, aCount, cCount int64
	require.NoError(t, database.DB.Model(&content.Question{}).Count(&qCount).Error)
	require.NoError(t, database.DB.Model(&content.Answer{}).Count(&aCount).Error)
	require.NoError(t, database.DB.Model(&content.Comment{}).Count(&cCount).Error)
	assert.EqualValues(t, 0, qCount)
	assert.EqualValues(t, 0, aCount)
	assert.EqualValues(t, 0, cCount)

	// 整棵树的通知都被清理
	var notifCount int64
	require.NoError(t, database.DB.Model(&notification.Notification{}).Count(&notifCount).Error)
	assert.EqualValues(t, 0, notifCount)

	// 采纳奖励不随问题删除回收
	assert.Equal(t, 10, reputationOf(t, answerer.ID))
}

func TestMentionFlow(t *testing.T) {
	setupTest(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	q, err := content.CreateQuestion(bob.ID, "请教一个问题", "想听听 @alice 的看法")
	require.NoError(t, err)
	qRef := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}

	// alice收到提及通知，提及记录落库
	list, err := notification.ListForUser(database.DB, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeMention, list[0].Type)

	ids, err := mention.UserIDsForContent(database.DB, qRef)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, ids)

	// 不存在的用户名被静默跳过，提及自己不产生通知
	q2, err := content.CreateQuestion(alice.ID, "自我提及", "@alice @ghost-user 看这里")
	require.NoError(t, err)
	list, err = notification.ListForUser(database.DB, alice.ID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1) // 仍然只有bob那条

	ids, err = mention.UserIDsForContent(database.DB, event.TargetRef{Kind: event.KindQuestion, ID: q2.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, ids)
}

func TestRollbackLeavesProjectionsUntouched(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	ghost := mustUser(t, "ghost")
	voter := mustUser(t, "voter")

	q1, err := content.CreateQuestion(author.ID, "正常的问题", "正文")
	require.NoError(t, err)
	q2, err := content.CreateQuestion(ghost.ID, "作者即将注销", "正文")
	require.NoError(t, err)

	// 作者注销后，对其内容计分会触发一致性失败
	require.NoError(t, database.DB.Delete(&user.User{}, ghost.ID).Error)

	// 第一个事件本会生成通知并加分，第二个事件让整个单元回滚
	err = engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		return []event.Event{
			{
				ID:      "55555555-5555-5555-5555-555555555555",
				Type:    event.TypeVoteCast,
				ActorID: voter.ID,
				Target:  event.TargetRef{Kind: event.KindQuestion, ID: q1.ID}, VoteValue: 1,
			},
			{
				ID:      "66666666-6666-6666-6666-666666666666",
				Type:    event.TypeVoteCast,
				ActorID: voter.ID,
				Target:  event.TargetRef{Kind: event.KindQuestion, ID: q2.ID}, VoteValue: 1,
			},
		}, nil
	})
	require.Error(t, err)

	// SQLite整体回滚
	var notifCount int64
	require.NoError(t, database.DB.Model(&notification.Notification{}).Count(&notifCount).Error)
	assert.EqualValues(t, 0, notifCount)
	assert.Equal(t, 7, reputationOf(t, author.ID))

	// 回滚的单元不能在Redis投影中留下痕迹
	field := strconv.FormatUint(uint64(author.ID), 10)
	_, err = database.RDB.HGet(database.Ctx, notification.UnreadCountKey, field).Result()
	assert.ErrorIs(t, err, redis.Nil)

	score, err := database.RDB.ZScore(database.Ctx, user.RankingKey, field).Result()
	require.NoError(t, err)
	assert.Equal(t, float64(7), score)
}

func TestReplayProducesSingleNotification(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")
	voter := mustUser(t, "voter")
	q, err := content.CreateQuestion(author.ID, "重复投递的事件", "正文")
	require.NoError(t, err)

	e := event.Event{
		ID:        "44444444-4444-4444-4444-444444444444",
		Type:      event.TypeVoteCast,
		ActorID:   voter.ID,
		Target:    event.TargetRef{Kind: event.KindQuestion, ID: q.ID},
		VoteValue: 1,
	}
	run := func() error {
		return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
			return []event.Event{e}, nil
		})
	}
	notifCount := func() int64 {
		var count int64
		require.NoError(t, database.DB.Model(&notification.Notification{}).
			Where("user_id = ?", author.ID).Count(&count).Error)
		return count
	}
	field := strconv.FormatUint(uint64(author.ID), 10)

	require.NoError(t, run())
	assert.EqualValues(t, 1, notifCount())
	assert.Equal(t, 12, reputationOf(t, author.ID))
	unread, err := database.RDB.HGet(database.Ctx, notification.UnreadCountKey, field).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// Redis快速路径挡住第二次投递：恰好一条通知，计数不涨
	require.NoError(t, run())
	assert.EqualValues(t, 1, notifCount())
	assert.Equal(t, 12, reputationOf(t, author.ID))
	unread, err = database.RDB.HGet(database.Ctx, notification.UnreadCountKey, field).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// 快速路径失效后，SQLite中的权威记录仍然挡住重放
	require.NoError(t, database.RDB.FlushAll(database.Ctx).Err())
	require.NoError(t, run())
	assert.EqualValues(t, 1, notifCount())
	assert.Equal(t, 12, reputationOf(t, author.ID))

	// 预热流程把未读计数投影重建回来
	require.NoError(t, startup.RebuildCache())
	unread, err = database.RDB.HGet(database.Ctx, notification.UnreadCountKey, field).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestValidationDropDoesNotBlockWrite(t *testing.T) {
	setupTest(t)
	author := mustUser(t, "author")

	// 缺少ID的事件被丢弃，但主写入照常提交
	err := engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		q := content.Question{AuthorID: author.ID, Title: "主写入", Body: ""}
		if err := tx.Create(&q).Error; err != nil {
			return nil, err
		}
		return []event.Event{{Type: event.TypeQuestionPosted, ActorID: author.ID}}, nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, database.DB.Model(&content.Question{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 0, reputationOf(t, author.ID))
}
