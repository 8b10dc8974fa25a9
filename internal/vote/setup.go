package vote

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
)

// PrimeModule 是vote模块的初始化总入口。
// 除了迁移表结构，还向引擎注册投票清理能力。
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&Vote{}); err != nil {
		return fmt.Errorf("无法迁移vote表: %w", err)
	}
	fmt.Println("Vote数据库表迁移成功。")

	engine.RegisterVotePurger(PurgeForContent)
	return nil
}
