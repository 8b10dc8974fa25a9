package startup

import (
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/content"
	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/mention"
	"github.com/SlpAus/devboard-backend/internal/notification"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/SlpAus/devboard-backend/internal/vote"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 初始化顺序有讲究：content和vote在PrimeModule中向引擎注册能力，
// 必须先于引擎开始处理任何事件完成。
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := user.PrimeModule(); err != nil {
		return err
	}
	if err := mention.PrimeModule(); err != nil {
		return err
	}
	if err := notification.PrimeModule(); err != nil {
		return err
	}
	if err := content.PrimeModule(); err != nil {
		return err
	}
	if err := vote.PrimeModule(); err != nil {
		return err
	}
	if err := engine.PrimeModule(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis缓存的函数。
// 排行榜、未读计数器和已处理事件集合都是SQLite状态的投影，
// 可以在Redis重启后从数据库完整恢复。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := user.WarmupCache(); err != nil {
		return err
	}
	if err := notification.WarmupCache(); err != nil {
		return err
	}
	if err := engine.RecoverReplayCache(); err != nil {
		return err
	}

	fmt.Println("缓存热重建完成。")
	return nil
}
