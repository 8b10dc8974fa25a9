package content

import (
	"errors"
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolve 是内容寻址的唯一入口：把一个带标签的引用解析为元信息。
// 内容不存在时返回可被 engine.IsNotFound 识别的错误。
func Resolve(tx *gorm.DB, ref event.TargetRef) (*event.ContentMeta, error) {
	return resolve(tx, ref, false)
}

// ResolveForUpdate 与Resolve相同，但对内容行加排他锁，
// 用于投票聚合这类读改写操作，串行化同一目标上的并发更新。
func ResolveForUpdate(tx *gorm.DB, ref event.TargetRef) (*event.ContentMeta, error) {
	return resolve(tx, ref, true)
}

func resolve(tx *gorm.DB, ref event.TargetRef, forUpdate bool) (*event.ContentMeta, error) {
	query := tx
	if forUpdate {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	switch ref.Kind {
	case event.KindQuestion:
		var q Question
		if err := query.First(&q, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		return &event.ContentMeta{Ref: ref, AuthorID: q.AuthorID, QuestionID: q.ID}, nil

	case event.KindAnswer:
		var a Answer
		if err := query.First(&a, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		meta := &event.ContentMeta{Ref: ref, AuthorID: a.AuthorID, QuestionID: a.QuestionID}
		var q Question
		if err := tx.Select("accepted_answer_id").First(&q, a.QuestionID).Error; err == nil {
			meta.IsAccepted = q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == a.ID
		}
		return meta, nil

	case event.KindComment:
		var c Comment
		if err := query.First(&c, ref.ID).Error; err != nil {
			return nil, notFoundOr(err, ref)
		}
		meta := &event.ContentMeta{Ref: ref, AuthorID: c.AuthorID}
		// 评论的所属问题沿父链解析，用于构造跳转链接
		switch c.ParentKind {
		case event.KindQuestion:
			meta.QuestionID = c.ParentID
		case event.KindAnswer:
			var a Answer
			if err := tx.Select("question_id").First(&a, c.ParentID).Error; err == nil {
				meta.QuestionID = a.QuestionID
			}
		}
		return meta, nil
	}

	return nil, engine.NewValidationError("未知的内容种类: %s", ref.Kind)
}

func notFoundOr(err error, ref event.TargetRef) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.NewNotFoundError("找不到内容 %s %d", ref.Kind, ref.ID)
	}
	return fmt.Errorf("查询内容失败 (%s %d): %w", ref.Kind, ref.ID, err)
}

// AdjustVoteCounts 调整一条内容的投票聚合。
// 调用方必须先通过ResolveForUpdate持有该行的排他锁。
func AdjustVoteCounts(tx *gorm.DB, ref event.TargetRef, dUp, dDown int) error {
	var model any
	switch ref.Kind {
	case event.KindQuestion:
		model = &Question{}
	case event.KindAnswer:
		model = &Answer{}
	case event.KindComment:
		model = &Comment{}
	default:
		return engine.NewValidationError("未知的内容种类: %s", ref.Kind)
	}

	err := tx.Model(model).Where("id = ?", ref.ID).Updates(map[string]any{
		"upvotes":   gorm.Expr("upvotes + ?", dUp),
		"downvotes": gorm.Expr("downvotes + ?", dDown),
	}).Error
	if err != nil {
		return fmt.Errorf("更新投票聚合失败 (%s %d): %w", ref.Kind, ref.ID, err)
	}
	return nil
}

// ClearAcceptedAnswer 清除问题的采纳指针（幂等）。
// 问题已不存在时静默成功。
func ClearAcceptedAnswer(tx *gorm.DB, questionID uint) error {
	err := tx.Model(&Question{}).Where("id = ?", questionID).
		Update("accepted_answer_id", nil).Error
	if err != nil {
		return fmt.Errorf("清除采纳指针失败 (question %d): %w", questionID, err)
	}
	return nil
}

// collectDeletionRefs 收集删除一条内容会波及的全部引用：
// 内容本身以及它拥有的所有下级（问题的回答、问题和回答下的评论）。
// 同时返回被波及的已采纳回答所属的问题ID（没有则为0）。
func collectDeletionRefs(tx *gorm.DB, ref event.TargetRef) ([]event.TargetRef, uint, error) {
	refs := []event.TargetRef{ref}
	var acceptedQuestionID uint

	collectComments := func(parent event.TargetRef) error {
		var ids []uint
		err := tx.Model(&Comment{}).
			Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("收集评论失败 (%s %d): %w", parent.Kind, parent.ID, err)
		}
		for _, id := range ids {
			refs = append(refs, event.TargetRef{Kind: event.KindComment, ID: id})
		}
		return nil
	}

	switch ref.Kind {
	case event.KindQuestion:
		if err := collectComments(ref); err != nil {
			return nil, 0, err
		}
		var answerIDs []uint
		if err := tx.Model(&Answer{}).Where("question_id = ?", ref.ID).Pluck("id", &answerIDs).Error; err != nil {
			return nil, 0, fmt.Errorf("收集回答失败 (question %d): %w", ref.ID, err)
		}
		for _, id := range answerIDs {
			answerRef := event.TargetRef{Kind: event.KindAnswer, ID: id}
			refs = append(refs, answerRef)
			if err := collectComments(answerRef); err != nil {
				return nil, 0, err
			}
		}

	case event.KindAnswer:
		if err := collectComments(ref); err != nil {
			return nil, 0, err
		}
		var a Answer
		if err := tx.Select("question_id").First(&a, ref.ID).Error; err == nil {
			var q Question
			err := tx.Select("id", "accepted_answer_id").First(&q, a.QuestionID).Error
			if err == nil && q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == ref.ID {
				acceptedQuestionID = q.ID
			}
		}

	case event.KindComment:
		// 评论没有下级
	}

	return refs, acceptedQuestionID, nil
}
