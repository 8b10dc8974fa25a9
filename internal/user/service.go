package user

import (
	"errors"
	"fmt"

	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound 表示目标用户不存在或已被删除
var ErrUserNotFound = errors.New("用户不存在")

// ApplyReputationDelta 在给定事务内对一个用户施加声望变化。
// 它锁定用户行以串行化同一用户上的并发计分，更新声望和徽章等级，
// 并在同一事务中追加一条账本记录。徽章等级永远在这里与声望一起重算，
// 不存在只改分数不改等级的路径。
// 返回更新后的声望值；排行投影的刷新留给调用方在事务提交后进行，
// 回滚的单元不能在排行中留下痕迹。
func ApplyReputationDelta(tx *gorm.DB, userID uint, delta int, e event.Event) (int, error) {
	if delta == 0 {
		return 0, nil
	}

	var u User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("无法锁定用户行: %w", err)
	}

	u.ReputationPoints += delta
	u.BadgeTier = TierFor(u.ReputationPoints)

	if err := tx.Save(&u).Error; err != nil {
		return 0, fmt.Errorf("无法更新用户声望: %w", err)
	}

	ledger := ReputationEvent{
		EventID: e.ID,
		UserID:  userID,
		Delta:   delta,
		Kind:    string(e.Type),
	}
	if err := tx.Create(&ledger).Error; err != nil {
		return 0, fmt.Errorf("无法写入声望账本: %w", err)
	}

	return u.ReputationPoints, nil
}

// CreateUser 创建一个新用户，徽章等级从零声望推导。
func CreateUser(db *gorm.DB, username string) (*User, error) {
	u := User{
		Username:  username,
		BadgeTier: TierFor(0),
	}
	if err := db.Create(&u).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("用户名 %s 已被占用", username)
		}
		return nil, err
	}
	RefreshRankingEntry(u.ID, 0)
	return &u, nil
}

// GetByID 按主键读取用户。
func GetByID(db *gorm.DB, id uint) (*User, error) {
	var u User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindIDsByUsernames 把一组用户名解析为用户ID。
// 不存在的用户名被静默跳过，返回的ID已按输入顺序去重。
func FindIDsByUsernames(db *gorm.DB, names []string) ([]uint, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var users []User
	if err := db.Select("id", "username").Where("username IN ?", names).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("无法按用户名查询用户: %w", err)
	}

	byName := make(map[string]uint, len(users))
	for _, u := range users {
		byName[u.Username] = u.ID
	}

	seen := make(map[uint]bool, len(names))
	ids := make([]uint, 0, len(users))
	for _, name := range names {
		id, ok := byName[name]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
