package user

import (
	"github.com/SlpAus/devboard-backend/internal/event"
)

// 声望分值表。这些是固定常量，不允许通过配置覆盖。
const (
	deltaQuestionPosted = 7
	deltaQuestionUpvote = 5
	deltaQuestionDown   = -3
	deltaAnswerUpvote   = 3
	deltaAnswerDown     = -1
	deltaAnswerAccepted = 10
)

// 徽章等级。等级区间封闭有序且互不重叠。
const (
	TierNewbie = "Newbie"
	TierExpert = "Expert"
	TierMaster = "Master"
	TierLegend = "Legend"
)

// TierFor 根据当前声望值计算徽章等级。
// 它是一个纯函数，对同一输入的重复计算结果恒定。
func TierFor(points int) string {
	switch {
	case points >= 5000:
		return TierLegend
	case points >= 1000:
		return TierMaster
	case points >= 250:
		return TierExpert
	default:
		return TierNewbie
	}
}

// voteDelta 返回单次投票对目标作者的声望影响。
// 分值表未覆盖的组合（比如对评论的投票）一律返回0，绝不猜测。
func voteDelta(kind event.ContentKind, value int) int {
	switch kind {
	case event.KindQuestion:
		if value > 0 {
			return deltaQuestionUpvote
		}
		if value < 0 {
			return deltaQuestionDown
		}
	case event.KindAnswer:
		if value > 0 {
			return deltaAnswerUpvote
		}
		if value < 0 {
			return deltaAnswerDown
		}
	}
	return 0
}

// ReputationDelta 是把事件映射为声望变化量的纯函数。
// 改票和撤票先施加原事件的精确逆量，再施加新量，而不是从头重算，
// 这样即使中间还有其他投票，历史也不会被错误地重推。
// 未定义的事件类型返回0。
func ReputationDelta(e event.Event) int {
	switch e.Type {
	case event.TypeQuestionPosted:
		return deltaQuestionPosted
	case event.TypeVoteCast:
		return voteDelta(e.Target.Kind, e.VoteValue)
	case event.TypeVoteRemoved:
		return -voteDelta(e.Target.Kind, e.OldVoteValue)
	case event.TypeVoteChanged:
		return -voteDelta(e.Target.Kind, e.OldVoteValue) + voteDelta(e.Target.Kind, e.VoteValue)
	case event.TypeAnswerAccepted:
		return deltaAnswerAccepted
	default:
		return 0
	}
}
