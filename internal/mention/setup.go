package mention

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
)

// PrimeModule 是mention模块的初始化总入口
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&Mention{}); err != nil {
		return fmt.Errorf("无法迁移mention表: %w", err)
	}
	fmt.Println("Mention数据库表迁移成功。")
	return nil
}
