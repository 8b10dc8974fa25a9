package notification

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/event"
)

// linkFor 构造指向一条内容的跳转路径。
// 回答和评论锚定在所属问题页内。
func linkFor(ref event.TargetRef, questionID uint) string {
	switch ref.Kind {
	case event.KindQuestion:
		return fmt.Sprintf("/questions/%d", ref.ID)
	case event.KindAnswer:
		return fmt.Sprintf("/questions/%d#answer-%d", questionID, ref.ID)
	case event.KindComment:
		return fmt.Sprintf("/questions/%d#comment-%d", questionID, ref.ID)
	}
	return ""
}

// kindLabel 返回内容种类的中文名，用于拼接通知文案
func kindLabel(kind event.ContentKind) string {
	switch kind {
	case event.KindQuestion:
		return "问题"
	case event.KindAnswer:
		return "回答"
	case event.KindComment:
		return "评论"
	}
	return "内容"
}

// Generate 把一个事件映射为零到多条通知草稿。
// 规则：
//   - 收件人等于事件触发者时不生成（自己给自己投票、评论、提及都静默）；
//   - 投票通知发给被投内容的作者；
//   - 新回答通知发给问题作者；
//   - 新评论只通知直接父级内容的作者，不通知整个讨论串；
//   - 采纳通知发给回答作者；
//   - 提及通知按被提及用户去重，每条内容对每个用户至多一条。
//
// 草稿携带事件ID，落库时由唯一约束保证重复投递不产生重复通知。
func Generate(e event.Event, meta *event.ContentMeta) []Draft {
	if meta == nil {
		return nil
	}

	drafts := make([]Draft, 0, 1)
	add := func(recipient uint, t Type, title, message string, link event.TargetRef, questionID uint) {
		if recipient == 0 || recipient == e.ActorID {
			return
		}
		drafts = append(drafts, Draft{
			UserID:   recipient,
			ActorID:  e.ActorID,
			Type:     t,
			Title:    title,
			Message:  message,
			Link:     linkFor(link, questionID),
			LinkKind: link.Kind,
			LinkID:   link.ID,
			EventID:  e.ID,
		})
	}

	switch e.Type {
	case event.TypeVoteCast:
		label := kindLabel(e.Target.Kind)
		if e.VoteValue > 0 {
			add(meta.AuthorID, TypeVote, "收到新的赞同",
				fmt.Sprintf("你的%s获得了一个赞同", label), e.Target, meta.QuestionID)
		} else {
			add(meta.AuthorID, TypeVote, "收到新的反对",
				fmt.Sprintf("你的%s收到了一个反对", label), e.Target, meta.QuestionID)
		}

	case event.TypeAnswerPosted:
		// Target是问题，Subject是新回答；回答被删时通知应一并消失，弱引用指向回答
		add(meta.AuthorID, TypeAnswer, "你的问题有了新回答",
			"有人回答了你关注的问题", e.Subject, e.Target.ID)

	case event.TypeCommentPosted:
		label := kindLabel(e.Target.Kind)
		add(meta.AuthorID, TypeComment, "收到新的评论",
			fmt.Sprintf("有人评论了你的%s", label), e.Subject, meta.QuestionID)

	case event.TypeAnswerAccepted:
		add(meta.AuthorID, TypeAcceptedAnswer, "回答被采纳",
			"你的回答被提问者采纳了", e.Target, meta.QuestionID)

	case event.TypeMentionDetected:
		seen := make(map[uint]bool, len(e.MentionedUserIDs))
		for _, uid := range e.MentionedUserIDs {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			add(uid, TypeMention, "有人提到了你",
				fmt.Sprintf("你在一条%s中被提及", kindLabel(e.Target.Kind)), e.Target, meta.QuestionID)
		}
	}

	return drafts
}
