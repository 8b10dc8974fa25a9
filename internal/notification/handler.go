package notification

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// ListMine 返回当前用户的通知，按时间倒序
func ListMine(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	list, err := ListForUser(database.DB, userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取通知失败"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetUnreadCount 返回当前用户的未读通知数，优先走Redis缓存
func GetUnreadCount(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	if database.IsRedisHealthy() {
		field := strconv.FormatUint(uint64(userID), 10)
		if v, err := database.RDB.HGet(database.Ctx, UnreadCountKey, field).Int64(); err == nil {
			c.JSON(http.StatusOK, gin.H{"unread": v})
			return
		}
	}

	// 缓存未命中或Redis不可用时回源SQLite
	var count int64
	err := database.DB.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取未读计数失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkOneRead 把一条通知标记为已读（幂等）
func MarkOneRead(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的通知ID"})
		return
	}

	if err := MarkRead(database.DB, userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "标记已读失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已标记为已读"})
}

// MarkAllMineRead 把当前用户的全部通知标记为已读（幂等）
func MarkAllMineRead(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	if err := MarkAllRead(database.DB, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "标记全部已读失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已全部标记为已读"})
}
