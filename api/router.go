package api

import (
	"github.com/SlpAus/devboard-backend/internal/content"
	"github.com/SlpAus/devboard-backend/internal/notification"
	"github.com/SlpAus/devboard-backend/internal/user"
	"github.com/SlpAus/devboard-backend/internal/vote"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(user.LoadUserMiddleware())

	// 写接口限流，读接口不限
	writeLimit := RateLimitMiddleware(10, 20)

	{
		// 用户相关的路由组 /api/users
		userRoutes := api.Group("/users")
		{
			userRoutes.POST("/register", writeLimit, user.Register)
			userRoutes.GET("/:id/reputation", user.GetReputation)
			userRoutes.GET("/ranking", user.GetRanking)
		}

		// 问题相关的路由组 /api/questions
		questionRoutes := api.Group("/questions")
		{
			questionRoutes.POST("", writeLimit, user.RequireUserMiddleware(), content.PostQuestion)
			questionRoutes.GET("/:id", content.GetQuestion)
			questionRoutes.POST("/:id/answers", writeLimit, user.RequireUserMiddleware(), content.PostAnswer)
			questionRoutes.DELETE("/:id", writeLimit, user.RequireUserMiddleware(), content.DeleteQuestion)
		}

		// 回答与评论的路由
		answerRoutes := api.Group("/answers")
		{
			answerRoutes.POST("/:id/accept", writeLimit, user.RequireUserMiddleware(), content.PostAcceptAnswer)
			answerRoutes.DELETE("/:id", writeLimit, user.RequireUserMiddleware(), content.DeleteAnswer)
		}
		commentRoutes := api.Group("/comments")
		{
			commentRoutes.POST("", writeLimit, user.RequireUserMiddleware(), content.PostComment)
			commentRoutes.DELETE("/:id", writeLimit, user.RequireUserMiddleware(), content.DeleteComment)
		}

		// 投票相关的路由 /api/votes
		voteRoutes := api.Group("/votes")
		{
			voteRoutes.POST("", writeLimit, user.RequireUserMiddleware(), vote.SubmitVote)
			voteRoutes.DELETE("", writeLimit, user.RequireUserMiddleware(), vote.RemoveVote)
		}

		// 通知相关的路由组 /api/notifications
		notificationRoutes := api.Group("/notifications", user.RequireUserMiddleware())
		{
			notificationRoutes.GET("", notification.ListMine)
			notificationRoutes.GET("/unread-count", notification.GetUnreadCount)
			notificationRoutes.POST("/:id/read", notification.MarkOneRead)
			notificationRoutes.POST("/read-all", notification.MarkAllMineRead)
		}
	}
}
