package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了用户在SQLite数据库中的持久化模型。
// ReputationPoints和BadgeTier是引擎托管的衍生状态，
// 只能通过ApplyReputationDelta修改，其他代码不得直接写入。
type User struct {
	ID uint `gorm:"primarykey" json:"id"`

	// Username 是用户的唯一名称，也是@提及解析的依据
	Username string `gorm:"uniqueIndex;type:varchar(64);not null" json:"username"`

	// ReputationPoints 是用户当前的声望值，可为负数
	ReputationPoints int `json:"reputation_points"`

	// BadgeTier 是由声望值推导出的徽章等级，随声望在同一事务中重算
	BadgeTier string `gorm:"type:varchar(16)" json:"badge_tier"`

	IsBanned   bool `gorm:"default:false" json:"is_banned"`
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReputationEvent 是声望变更的只追加账本。
// 每一次声望变化都必须有且只有一条账本记录来解释，
// 因此用户当前的声望值恒等于其账本记录之和。
type ReputationEvent struct {
	ID uint `gorm:"primarykey"`

	// EventID 是触发本次变更的领域事件ID，唯一索引保证同一事件不会被记两次账
	EventID string `gorm:"uniqueIndex;type:varchar(36);not null"`

	UserID uint `gorm:"index;not null"`

	// Delta 是本次事件产生的净声望变化
	Delta int `gorm:"not null"`

	// Kind 记录事件类型，便于审计
	Kind string `gorm:"type:varchar(32)"`

	CreatedAt time.Time
}
