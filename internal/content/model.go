package content

import (
	"time"

	"github.com/SlpAus/devboard-backend/internal/event"
)

// Question 定义了问题在SQLite数据库中的持久化模型。
// 内容删除是物理删除：衍生状态的清理依赖行真正消失。
type Question struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	AuthorID uint   `gorm:"index;not null" json:"author_id"`
	Title    string `gorm:"type:varchar(255);not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`

	// Upvotes 和 Downvotes 是投票聚合，在行锁保护下更新
	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	// AcceptedAnswerID 指向被采纳的回答，一个问题至多一个
	AcceptedAnswerID *uint `json:"accepted_answer_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Answer 定义了回答的持久化模型
type Answer struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	AuthorID   uint   `gorm:"index;not null" json:"author_id"`
	Body       string `gorm:"type:text;not null" json:"body"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment 定义了评论的持久化模型。
// 评论可以挂在问题或回答下，由 (ParentKind, ParentID) 指明父级。
type Comment struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	ParentKind event.ContentKind `gorm:"index:idx_comment_parent;type:varchar(16);not null" json:"parent_kind"`
	ParentID   uint              `gorm:"index:idx_comment_parent;not null" json:"parent_id"`
	AuthorID   uint              `gorm:"index;not null" json:"author_id"`
	Body       string            `gorm:"type:text;not null" json:"body"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
