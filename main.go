package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-chat-service/internal/config"
	"campus-chat-service/internal/db"
	"campus-chat-service/internal/events"
	"campus-chat-service/internal/handlers"
	"campus-chat-service/internal/middleware"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/rabbitmq"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/services"
	"campus-chat-service/internal/telemetry"
	"campus-chat-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", cfg.Environment)

	profileRepo := repositories.NewProfileRepo(database)
	groupRepo := repositories.NewChatGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	registry := ws.NewRegistry()
	hub := ws.NewHub()
	broadcaster := events.NewFanout(hub, publisher)

	unreadService := services.NewUnreadService(profileRepo, messageRepo, broadcaster)
	messageService := services.NewMessageService(profileRepo, groupRepo, messageRepo, broadcaster, unreadService, audit)

	validator := middleware.NewJWTValidator(cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(profileRepo, groupRepo, messageRepo, messageService, unreadService, registry)
	presenceHandler := handlers.NewPresenceHandler(registry)
	wsHandler := ws.NewHandler(hub, registry, broadcaster, validator, profileRepo, groupRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("campus-chat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(validator)

	router.GET("/chats", authMiddleware, chatHandler.ListChatGroups)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostMessage)
	router.POST("/chats/:chat_id/read", authMiddleware, chatHandler.MarkRead)
	router.GET("/me/unread", authMiddleware, chatHandler.UnreadCount)
	router.GET("/users/:user_id/online", authMiddleware, presenceHandler.OnlineStatus)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
