package notification

import (
	"time"

	"github.com/SlpAus/devboard-backend/internal/event"
)

// Type 定义了通知类型的枚举
type Type string

const (
	TypeAnswer         Type = "answer"
	TypeComment        Type = "comment"
	TypeVote           Type = "vote"
	TypeMention        Type = "mention"
	TypeSystem         Type = "system"
	TypeAcceptedAnswer Type = "accepted_answer"
)

// Notification 定义了通知在SQLite数据库中的持久化模型。
// Link是指向触发内容的弱引用，只用于跳转，不构成所有权边。
// LinkKind/LinkID 是同一引用的结构化形式，供孤儿清理按内容定位。
// (user_id, event_id) 唯一索引保证同一事件对同一收件人至多生成一条通知。
type Notification struct {
	ID uint `gorm:"primarykey" json:"id"`

	// UserID 是通知的收件人
	UserID uint `gorm:"index;not null;uniqueIndex:idx_notification_user_event" json:"user_id"`

	// ActorID 是触发通知的用户
	ActorID uint `gorm:"index" json:"actor_id"`

	Type    Type   `gorm:"type:varchar(20);not null" json:"type"`
	Title   string `gorm:"type:varchar(128)" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// Link 是前端跳转路径
	Link string `gorm:"type:varchar(255)" json:"link"`

	// LinkKind 和 LinkID 指向被引用的内容，该内容删除时本通知随之删除
	LinkKind event.ContentKind `gorm:"index:idx_notification_link;type:varchar(16)" json:"-"`
	LinkID   uint              `gorm:"index:idx_notification_link" json:"-"`

	// EventID 是生成本通知的领域事件，用于重放去重
	EventID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_notification_user_event" json:"-"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft 是生成器产出的待持久化通知。
// 生成器是纯逻辑，不接触数据库；落库由仓库层完成。
type Draft struct {
	UserID   uint
	ActorID  uint
	Type     Type
	Title    string
	Message  string
	Link     string
	LinkKind event.ContentKind
	LinkID   uint
	EventID  string
}
