package notification

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
)

// PrimeModule 是notification模块的初始化总入口
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&Notification{}); err != nil {
		return fmt.Errorf("无法迁移notification表: %w", err)
	}
	fmt.Println("Notification数据库表迁移成功。")

	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
