package content

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
)

// PrimeModule 是content模块的初始化总入口。
// 除了迁移表结构，还向引擎注册内容解析与采纳指针清理能力。
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&Question{}, &Answer{}, &Comment{}); err != nil {
		return fmt.Errorf("无法迁移content表: %w", err)
	}
	fmt.Println("Content数据库表迁移成功。")

	engine.RegisterContentResolver(Resolve)
	engine.RegisterAcceptedAnswerClearer(ClearAcceptedAnswer)
	return nil
}
