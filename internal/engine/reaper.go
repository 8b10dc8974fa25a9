package engine

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/mention"
	"github.com/SlpAus/devboard-backend/internal/notification"
	"gorm.io/gorm"
)

// reap 对删除事件做同步级联清理。
// 对被删内容本身及其全部下级，依次删除引用它们的通知、
// 它们拥有的提及和指向它们的投票；如果被删内容是已采纳的回答，
// 额外清除所属问题的采纳指针。每一步对已缺失的行都是无操作，
// 整个级联与内容删除共享事务：要么全部发生，要么全部不发生。
// 未读计数的回收进入pending缓冲，提交后才应用。
func reap(tx *gorm.DB, e event.Event, pending *projectionUpdate) error {
	refs := e.Deleted
	if len(refs) == 0 && !e.Target.IsZero() {
		refs = []event.TargetRef{e.Target}
	}

	for _, ref := range refs {
		deltas, err := notification.DeleteByRef(tx, ref)
		if err != nil {
			return fmt.Errorf("清理通知失败 (%s %d): %w", ref.Kind, ref.ID, err)
		}
		pending.mergeUnread(deltas)
		if err := mention.DeleteForContent(tx, ref); err != nil {
			return fmt.Errorf("清理提及失败 (%s %d): %w", ref.Kind, ref.ID, err)
		}
		if purgeVotes != nil {
			if err := purgeVotes(tx, ref); err != nil {
				return fmt.Errorf("清理投票失败 (%s %d): %w", ref.Kind, ref.ID, err)
			}
		}
	}

	// 采纳奖励不随删除回收，这里只清指针，不动声望账本
	if e.AcceptedAnswerQuestionID != 0 && clearAcceptedAnswer != nil {
		if err := clearAcceptedAnswer(tx, e.AcceptedAnswerQuestionID); err != nil {
			return fmt.Errorf("清除采纳指针失败 (question %d): %w", e.AcceptedAnswerQuestionID, err)
		}
	}

	return nil
}
