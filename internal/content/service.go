package content

import (
	"errors"
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/mention"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrForbidden 表示操作者不是内容的所有者
var ErrForbidden = errors.New("没有权限执行此操作")

// newEventID 为每个领域事件分配UUID作为幂等键
func newEventID() string {
	return uuid.NewString()
}

// mentionEventFor 解析文本中的@提及并构造提及事件。
// 没有任何有效提及时返回nil。
func mentionEventFor(tx *gorm.DB, actorID uint, ref event.TargetRef, text string) (*event.Event, error) {
	handles := mention.ParseHandles(text)
	if len(handles) == 0 {
		return nil, nil
	}
	ids, err := user.FindIDsByUsernames(tx, handles)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &event.Event{
		ID:               newEventID(),
		Type:             event.TypeMentionDetected,
		ActorID:          actorID,
		Target:           ref,
		MentionedUserIDs: ids,
	}, nil
}

// CreateQuestion 创建一个问题，并在同一事务中完成计分和提及处理
func CreateQuestion(authorID uint, title, body string) (*Question, error) {
	var q Question
	err := engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		q = Question{AuthorID: authorID, Title: title, Body: body}
		if err := tx.Create(&q).Error; err != nil {
			return nil, fmt.Errorf("无法创建问题: %w", err)
		}

		ref := event.TargetRef{Kind: event.KindQuestion, ID: q.ID}
		events := []event.Event{{
			ID:      newEventID(),
			Type:    event.TypeQuestionPosted,
			ActorID: authorID,
			Target:  ref,
		}}

		if me, err := mentionEventFor(tx, authorID, ref, body); err != nil {
			return nil, err
		} else if me != nil {
			events = append(events, *me)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateAnswer 在一个问题下创建回答
func CreateAnswer(authorID, questionID uint, body string) (*Answer, error) {
	var a Answer
	err := engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		questionRef := event.TargetRef{Kind: event.KindQuestion, ID: questionID}
		if _, err := Resolve(tx, questionRef); err != nil {
			return nil, err
		}

		a = Answer{QuestionID: questionID, AuthorID: authorID, Body: body}
		if err := tx.Create(&a).Error; err != nil {
			return nil, fmt.Errorf("无法创建回答: %w", err)
		}

		answerRef := event.TargetRef{Kind: event.KindAnswer, ID: a.ID}
		events := []event.Event{{
			ID:      newEventID(),
			Type:    event.TypeAnswerPosted,
			ActorID: authorID,
			Target:  questionRef,
			Subject: answerRef,
		}}

		if me, err := mentionEventFor(tx, authorID, answerRef, body); err != nil {
			return nil, err
		} else if me != nil {
			events = append(events, *me)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateComment 在问题或回答下创建评论
func CreateComment(authorID uint, parent event.TargetRef, body string) (*Comment, error) {
	if parent.Kind == event.KindComment {
		return nil, engine.NewValidationError("评论不能作为评论的父级")
	}

	var c Comment
	err := engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		if _, err := Resolve(tx, parent); err != nil {
			return nil, err
		}

		c = Comment{ParentKind: parent.Kind, ParentID: parent.ID, AuthorID: authorID, Body: body}
		if err := tx.Create(&c).Error; err != nil {
			return nil, fmt.Errorf("无法创建评论: %w", err)
		}

		commentRef := event.TargetRef{Kind: event.KindComment, ID: c.ID}
		events := []event.Event{{
			ID:      newEventID(),
			Type:    event.TypeCommentPosted,
			ActorID: authorID,
			Target:  parent,
			Subject: commentRef,
		}}

		if me, err := mentionEventFor(tx, authorID, commentRef, body); err != nil {
			return nil, err
		} else if me != nil {
			events = append(events, *me)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AcceptAnswer 把一个回答标记为所属问题的采纳答案。
// 只有提问者可以采纳；重复采纳同一回答是幂等的无操作；
// 改选其他回答时，旧采纳的声望奖励不回收。
func AcceptAnswer(actorID, answerID uint) error {
	return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		var a Answer
		if err := tx.First(&a, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, engine.NewNotFoundError("找不到回答 %d", answerID)
			}
			return nil, err
		}

		var q Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, a.QuestionID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, engine.NewNotFoundError("找不到问题 %d", a.QuestionID)
			}
			return nil, err
		}

		if q.AuthorID != actorID {
			return nil, ErrForbidden
		}
		if q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == a.ID {
			return nil, nil // 已是采纳状态，幂等返回
		}

		if err := tx.Model(&q).Update("accepted_answer_id", a.ID).Error; err != nil {
			return nil, fmt.Errorf("无法更新采纳指针: %w", err)
		}

		return []event.Event{{
			ID:      newEventID(),
			Type:    event.TypeAnswerAccepted,
			ActorID: actorID,
			Target:  event.TargetRef{Kind: event.KindAnswer, ID: a.ID},
		}}, nil
	})
}

// DeleteContent 删除一条内容及其全部下级，并触发同事务的孤儿清理。
// 只有作者本人可以删除。
func DeleteContent(actorID uint, ref event.TargetRef) error {
	return engine.RunUnitOfWork(func(tx *gorm.DB) ([]event.Event, error) {
		meta, err := ResolveForUpdate(tx, ref)
		if err != nil {
			return nil, err
		}
		if meta.AuthorID != actorID {
			return nil, ErrForbidden
		}

		refs, acceptedQuestionID, err := collectDeletionRefs(tx, ref)
		if err != nil {
			return nil, err
		}

		// 先删下级再删自身
		for i := len(refs) - 1; i >= 0; i-- {
			if err := deleteRow(tx, refs[i]); err != nil {
				return nil, err
			}
		}

		return []event.Event{{
			ID:                       newEventID(),
			Type:                     event.TypeContentDeleted,
			ActorID:                  actorID,
			Target:                   ref,
			Deleted:                  refs,
			AcceptedAnswerQuestionID: acceptedQuestionID,
		}}, nil
	})
}

func deleteRow(tx *gorm.DB, ref event.TargetRef) error {
	var err error
	switch ref.Kind {
	case event.KindQuestion:
		err = tx.Delete(&Question{}, ref.ID).Error
	case event.KindAnswer:
		err = tx.Delete(&Answer{}, ref.ID).Error
	case event.KindComment:
		err = tx.Delete(&Comment{}, ref.ID).Error
	default:
		return engine.NewValidationError("未知的内容种类: %s", ref.Kind)
	}
	if err != nil {
		return fmt.Errorf("删除内容失败 (%s %d): %w", ref.Kind, ref.ID, err)
	}
	return nil
}
