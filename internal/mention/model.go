package mention

import (
	"time"

	"github.com/SlpAus/devboard-backend/internal/event"
)

// Mention 是从内容指向被提及用户的弱引用记录。
// 它只用于查询，不构成所有权边；内容被删除时记录随之删除。
// 复合主键 (content_kind, content_id, user_id) 保证同一内容对同一用户只留一条。
type Mention struct {
	ContentKind event.ContentKind `gorm:"primaryKey;type:varchar(16)" json:"content_kind"`
	ContentID   uint              `gorm:"primaryKey" json:"content_id"`
	UserID      uint              `gorm:"primaryKey;index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}
