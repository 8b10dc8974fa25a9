package user

import (
	"testing"

	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int
		tier   string
	}{
		{0, TierNewbie},
		{249, TierNewbie},
		{250, TierExpert},
		{999, TierExpert},
		{1000, TierMaster},
		{4999, TierMaster},
		{5000, TierLegend},
		{100000, TierLegend},
		{-50, TierNewbie}, // 声望可以为负，等级保持最低档
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, TierFor(c.points), "points=%d", c.points)
	}
}

func TestReputationDelta(t *testing.T) {
	questionRef := event.TargetRef{Kind: event.KindQuestion, ID: 1}
	answerRef := event.TargetRef{Kind: event.KindAnswer, ID: 2}
	commentRef := event.TargetRef{Kind: event.KindComment, ID: 3}

	t.Run("提问加分", func(t *testing.T) {
		assert.Equal(t, 7, ReputationDelta(event.Event{Type: event.TypeQuestionPosted, Target: questionRef}))
	})

	t.Run("问题投票", func(t *testing.T) {
		assert.Equal(t, 5, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: questionRef, VoteValue: 1}))
		assert.Equal(t, -3, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: questionRef, VoteValue: -1}))
	})

	t.Run("回答投票", func(t *testing.T) {
		assert.Equal(t, 3, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: answerRef, VoteValue: 1}))
		assert.Equal(t, -1, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: answerRef, VoteValue: -1}))
	})

	t.Run("评论投票不计分", func(t *testing.T) {
		assert.Equal(t, 0, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: commentRef, VoteValue: 1}))
		assert.Equal(t, 0, ReputationDelta(event.Event{Type: event.TypeVoteCast, Target: commentRef, VoteValue: -1}))
	})

	t.Run("采纳加分", func(t *testing.T) {
		assert.Equal(t, 10, ReputationDelta(event.Event{Type: event.TypeAnswerAccepted, Target: answerRef}))
	})

	t.Run("撤票是原事件的精确逆量", func(t *testing.T) {
		assert.Equal(t, -5, ReputationDelta(event.Event{Type: event.TypeVoteRemoved, Target: questionRef, OldVoteValue: 1}))
		assert.Equal(t, 1, ReputationDelta(event.Event{Type: event.TypeVoteRemoved, Target: answerRef, OldVoteValue: -1}))
	})

	t.Run("改票等于先逆后加", func(t *testing.T) {
		// 问题上的赞同翻转为反对: -5 + (-3) = -8
		assert.Equal(t, -8, ReputationDelta(event.Event{
			Type: event.TypeVoteChanged, Target: questionRef, VoteValue: -1, OldVoteValue: 1,
		}))
		// 回答上的反对翻转为赞同: +1 + 3 = 4
		assert.Equal(t, 4, ReputationDelta(event.Event{
			Type: event.TypeVoteChanged, Target: answerRef, VoteValue: 1, OldVoteValue: -1,
		}))
	})

	t.Run("未定义的事件类型返回零", func(t *testing.T) {
		assert.Equal(t, 0, ReputationDelta(event.Event{Type: event.TypeCommentPosted, Target: questionRef}))
		assert.Equal(t, 0, ReputationDelta(event.Event{Type: "something_new", Target: questionRef}))
	})
}
