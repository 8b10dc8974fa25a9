package vote

import (
	"time"

	"github.com/SlpAus/devboard-backend/internal/event"
)

// 投票方向
const (
	ValueUp   = 1
	ValueDown = -1
)

// Vote 定义了单条投票记录的数据结构。
// (voter_id, target_kind, target_id) 唯一索引保证同一用户
// 对同一内容在任何时刻至多持有一票；改票是对该行的更新，不是追加。
type Vote struct {
	ID uint `gorm:"primarykey" json:"id"`

	VoterID uint `gorm:"not null;uniqueIndex:idx_vote_voter_target" json:"voter_id"`

	TargetKind event.ContentKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_vote_voter_target;index:idx_vote_target" json:"target_kind"`
	TargetID   uint              `gorm:"not null;uniqueIndex:idx_vote_voter_target;index:idx_vote_target" json:"target_id"`

	// Value 是投票方向，+1赞同，-1反对
	Value int `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
