package content

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/devboard-backend/internal/engine"
	"github.com/SlpAus/devboard-backend/internal/event"
	"github.com/SlpAus/devboard-backend/internal/platform/database"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// QuestionRequestBody 定义了创建问题时请求体的JSON结构
type QuestionRequestBody struct {
	Title string `json:"title" binding:"required,min=4,max=255"`
	Body  string `json:"body" binding:"max=65535"`
}

// AnswerRequestBody 定义了创建回答时请求体的JSON结构
type AnswerRequestBody struct {
	Body string `json:"body" binding:"required,min=1,max=65535"`
}

// CommentRequestBody 定义了创建评论时请求体的JSON结构
type CommentRequestBody struct {
	ParentKind string `json:"parent_kind" binding:"required,oneof=question answer"`
	ParentID   uint   `json:"parent_id" binding:"required"`
	Body       string `json:"body" binding:"required,min=1,max=4096"`
}

// respondError 把服务层错误映射为HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "目标内容不存在"})
	case engine.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case engine.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理请求失败: " + err.Error()})
	}
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
	}
	return userID, ok
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的内容ID"})
		return 0, false
	}
	return uint(id), true
}

// PostQuestion 处理创建问题的请求
func PostQuestion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var body QuestionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	q, err := CreateQuestion(userID, body.Title, body.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetQuestion 返回一个问题及其全部回答
func GetQuestion(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var q Question
	if err := database.DB.First(&q, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "找不到问题"})
		return
	}
	var answers []Answer
	if err := database.DB.Where("question_id = ?", id).Order("upvotes DESC, id ASC").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取回答失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": q, "answers": answers})
}

// PostAnswer 处理在问题下创建回答的请求
func PostAnswer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body AnswerRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	a, err := CreateAnswer(userID, questionID, body.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PostComment 处理创建评论的请求
func PostComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var body CommentRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	parent := event.TargetRef{Kind: event.ContentKind(body.ParentKind), ID: body.ParentID}
	cm, err := CreateComment(userID, parent, body.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

// PostAcceptAnswer 处理采纳回答的请求
func PostAcceptAnswer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	answerID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := AcceptAnswer(userID, answerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "采纳成功"})
}

// deleteHandlerFor 生成按种类删除内容的处理器
func deleteHandlerFor(kind event.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		if err := DeleteContent(userID, event.TargetRef{Kind: kind, ID: id}); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
	}
}

// DeleteQuestion 删除一个问题及其全部下级
var DeleteQuestion = deleteHandlerFor(event.KindQuestion)

// DeleteAnswer 删除一个回答及其评论
var DeleteAnswer = deleteHandlerFor(event.KindAnswer)

// DeleteComment 删除一条评论
var DeleteComment = deleteHandlerFor(event.KindComment)
