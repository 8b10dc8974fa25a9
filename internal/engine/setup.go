package engine

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
)

// PrimeModule 是engine模块的初始化总入口
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&ProcessedEvent{}); err != nil {
		return fmt.Errorf("无法迁移已处理事件表: %w", err)
	}
	fmt.Println("Engine数据库表迁移成功。")

	if err := RecoverReplayCache(); err != nil {
		return err
	}
	return nil
}
