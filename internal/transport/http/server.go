package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-assistant/internal/ai"
	appsvc "portfolio-assistant/internal/app"
	"portfolio-assistant/internal/bootstrap"
	"portfolio-assistant/internal/cache"
	"portfolio-assistant/internal/platform/rabbitmq"
	"portfolio-assistant/internal/rag"
	"portfolio-assistant/internal/repository"
	"portfolio-assistant/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	embRepo := repository.NewEmbeddingRepository(app.MySQL)
	convRepo := repository.NewConversationRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)

	engine := rag.NewEngine(embRepo)
	ingestService := appsvc.NewIngestService(docRepo, embRepo, app.Config.RAG.ChunkSize, app.Config.RAG.ChunkOverlap)

	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	assistantService := appsvc.NewAssistantService(
		convRepo,
		messageRepo,
		publisher,
		historyCache,
		engine,
		app.ModelSelector,
		app.RateLimiter,
		ai.ChatConfig{
			BaseURL:     app.Config.LLM.BaseURL,
			APIKey:      app.Config.LLM.APIKey,
			Temperature: app.Config.LLM.Temperature,
			MaxTokens:   app.Config.LLM.MaxTokens,
		},
		app.Config.RAG.MinConfidence,
		app.Config.LLM.MaxContextMessage,
	)

	documentHandler := handler.NewDocumentHandler(ingestService)
	searchHandler := handler.NewSearchHandler(engine, app.Config.RAG.TopK)
	chatHandler := handler.NewChatHandler(assistantService)

	v1 := router.Group("/api/v1")

	docGroup := v1.Group("/documents")
	docGroup.POST("", documentHandler.Ingest)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:id", documentHandler.Get)
	docGroup.DELETE("/:id", documentHandler.Delete)

	v1.POST("/search", searchHandler.Search)
	v1.GET("/context", searchHandler.Context)

	chatGroup := v1.Group("/chat")
	chatGroup.POST("/conversations", chatHandler.CreateConversation)
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.DELETE("/conversations/:id", chatHandler.DeleteConversation)
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.POST("/stream", chatHandler.StreamMessage)
	chatGroup.GET("/history", chatHandler.GetHistory)

	return router
}
