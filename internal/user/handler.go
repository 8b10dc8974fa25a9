package user

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// RegisterRequestBody 定义了注册用户时请求体的JSON结构
type RegisterRequestBody struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
}

// Register 创建一个新用户并下发会话cookie
func Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	u, err := CreateUser(database.DB, body.Username)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.SetCookie(CookieName, SignSession(u.ID), CookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, u)
}

// GetReputation 返回一个用户的声望读模型 {points, tier}
func GetReputation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	u, err := GetByID(database.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "找不到用户"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points": u.ReputationPoints,
		"tier":   u.BadgeTier,
	})
}

// rankingEntry 是排行接口返回的单行数据
type rankingEntry struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Tier     string `json:"tier"`
}

// GetRanking 从Redis投影读取声望排行榜
func GetRanking(c *gin.Context) {
	if !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "排行服务暂时不可用"})
		return
	}

	users, err := RankedUsers(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取排行失败"})
		return
	}

	entries := make([]rankingEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, rankingEntry{
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.ReputationPoints,
			Tier:     u.BadgeTier,
		})
	}

	c.JSON(http.StatusOK, entries)
}
