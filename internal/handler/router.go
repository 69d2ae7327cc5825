package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Notebooks     *NotebookHandler
	Notes         *NoteHandler
	Tags          *TagHandler
	Tasks         *TaskHandler
	Questions     *QuestionHandler
	Search        *SearchHandler
	Conversations *ConversationHandler
	Media         *MediaHandler
	Files         *FileHandler
	JWTSecret     []byte
	AIRateLimit   gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/users/me", deps.Auth.Me)
	authGroup.PATCH("/users/me", deps.Auth.UpdateMe)

	authGroup.POST("/notebooks", deps.Notebooks.Create)
	authGroup.GET("/notebooks", deps.Notebooks.List)
	authGroup.GET("/notebooks/:id", deps.Notebooks.Get)
	authGroup.PATCH("/notebooks/:id", deps.Notebooks.Update)
	authGroup.DELETE("/notebooks/:id", deps.Notebooks.Delete)
	authGroup.GET("/notebooks/:id/notes", deps.Notebooks.Notes)

	authGroup.POST("/notes", deps.Notes.Create)
	authGroup.GET("/notes", deps.Notes.List)
	authGroup.GET("/notes/:id", deps.Notes.Get)
	authGroup.PATCH("/notes/:id", deps.Notes.Update)
	authGroup.DELETE("/notes/:id", deps.Notes.Delete)
	authGroup.PUT("/notes/:id/pin", deps.Notes.Pin)
	authGroup.PUT("/notes/:id/tags", deps.Notes.SetTags)
	authGroup.GET("/notes/:id/export", deps.Notes.Export)
	authGroup.GET("/notes/:id/html", deps.Notes.HTML)
	authGroup.POST("/notes/:id/questions", deps.Questions.Create)
	authGroup.GET("/notes/:id/questions", deps.Questions.List)

	authGroup.POST("/tags", deps.Tags.Create)
	authGroup.GET("/tags", deps.Tags.List)
	authGroup.PATCH("/tags/:id", deps.Tags.Rename)
	authGroup.DELETE("/tags/:id", deps.Tags.Delete)
	authGroup.GET("/tags/:id/notes", deps.Tags.Notes)

	authGroup.POST("/tasks", deps.Tasks.Create)
	authGroup.GET("/tasks", deps.Tasks.List)
	authGroup.GET("/tasks/:id", deps.Tasks.Get)
	authGroup.PATCH("/tasks/:id", deps.Tasks.Update)
	authGroup.DELETE("/tasks/:id", deps.Tasks.Delete)
	authGroup.GET("/tasks/:id/history", deps.Tasks.History)

	authGroup.PATCH("/questions/:id", deps.Questions.Update)
	authGroup.DELETE("/questions/:id", deps.Questions.Delete)

	authGroup.GET("/search", deps.Search.Search)

	authGroup.POST("/conversations", deps.Conversations.Create)
	authGroup.GET("/conversations", deps.Conversations.List)
	authGroup.GET("/conversations/:id", deps.Conversations.Get)
	authGroup.PATCH("/conversations/:id", deps.Conversations.Rename)
	authGroup.DELETE("/conversations/:id", deps.Conversations.Delete)
	authGroup.GET("/conversations/:id/poll", deps.Conversations.Poll)

	authGroup.POST("/media", deps.Media.Upload)
	authGroup.GET("/media/:id", deps.Media.Get)
	authGroup.GET("/media/:id/content", deps.Media.Content)
	authGroup.DELETE("/media/:id", deps.Media.Delete)

	authGroup.GET("/files/:key", deps.Files.Get)

	aiGroup := authGroup.Group("")
	if deps.AIRateLimit != nil {
		aiGroup.Use(deps.AIRateLimit)
	}
	aiGroup.POST("/notes/:id/questions/generate", deps.Questions.Generate)
	aiGroup.GET("/search/semantic", deps.Search.Semantic)
	aiGroup.POST("/conversations/:id/messages", deps.Conversations.Send)
	aiGroup.POST("/conversations/:id/stream", deps.Conversations.Stream)
	aiGroup.POST("/media/speech", deps.Media.Speech)
	aiGroup.POST("/media/:id/transcribe", deps.Media.Transcribe)
}
