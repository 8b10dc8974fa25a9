package vote

import (
	"net/http"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// VoteRequestBody 定义了前端提交投票时，请求体的JSON结构
type VoteRequestBody struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=question answer comment"`
	TargetID   uint   `json:"target_id" binding:"required"`
	Value      int    `json:"value" binding:"required,oneof=-1 1"`
}

// RemoveRequestBody 定义了撤票请求体的JSON结构
type RemoveRequestBody struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=question answer comment"`
	TargetID   uint   `json:"target_id" binding:"required"`
}

func respondError(c *gin.Context, err error) {
	switch {
	case engine.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": "已对该内容投过票"})
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "目标内容不存在"})
	case engine.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理投票失败: " + err.Error()})
	}
}

// SubmitVote 处理前端提交的投票
func SubmitVote(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	var body VoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	target := event.TargetRef{Kind: event.ContentKind(body.TargetKind), ID: body.TargetID}
	if err := Cast(userID, target, body.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投票成功"})
}

// RemoveVote 处理撤销投票的请求
func RemoveVote(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	var body RemoveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	target := event.TargetRef{Kind: event.ContentKind(body.TargetKind), ID: body.TargetID}
	if err := Remove(userID, target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投票已撤销"})
}
