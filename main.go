package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"plufi-chat/internal/ai"
	"plufi-chat/internal/auth"
	"plufi-chat/internal/config"
	"plufi-chat/internal/db"
	"plufi-chat/internal/handlers"
	"plufi-chat/internal/middleware"
	"plufi-chat/internal/observability"
	"plufi-chat/internal/push"
	"plufi-chat/internal/rabbitmq"
	"plufi-chat/internal/repositories"
	"plufi-chat/internal/telemetry"
	"plufi-chat/internal/tracing"
	"plufi-chat/internal/ws"
)

const serviceName = "plufi-chat"

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := tracing.Init(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode: %s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_logs.api", serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	pushRepo := repositories.NewPushRepo(database)
	expenseRepo := repositories.NewExpenseRepo(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)

	botUserID, err := ensureBotAccount(context.Background(), userRepo, cfg.AIBotUsername)
	if err != nil {
		log.Fatalf("failed to provision bot account: %v", err)
	}

	hub := ws.NewHub()
	limiter := ws.NewUserRateLimiter(cfg.RateLimitEvents, cfg.RateLimitWindow)
	pushSender := push.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	responder := ai.NewOpenAIResponder(cfg.OpenAIKey, cfg.AIBotModel, cfg.AISystemPrompt, cfg.AIBotUsername, cfg.AITimeout)

	gateway := ws.NewGateway(hub, tokens, userRepo, chatRepo, messageRepo, friendRepo,
		pushRepo, pushSender, responder, limiter, botUserID, cfg.AITimeout)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, emitter)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, friendRepo)
	pushHandler := handlers.NewPushHandler(pushRepo, cfg.VAPIDPublicKey)
	expenseHandler := handlers.NewExpenseHandler(expenseRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authMiddleware := middleware.AuthMiddleware(tokens)
	authed := api.Group("", authMiddleware)
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/users/search", authHandler.SearchUsers)

	authed.POST("/friends/requests", friendHandler.SendRequest)
	authed.POST("/friends/requests/:request_id/respond", friendHandler.Respond)
	authed.GET("/friends", friendHandler.ListFriends)
	authed.GET("/friends/requests/incoming", friendHandler.ListIncoming)
	authed.GET("/friends/requests/outgoing", friendHandler.ListOutgoing)

	authed.GET("/chats", chatHandler.ListChats)
	authed.POST("/chats/start", chatHandler.StartChat)
	authed.POST("/chats/groups", chatHandler.CreateGroup)
	authed.GET("/chats/:chat_id/messages", chatHandler.GetMessages)
	authed.GET("/chats/unread", chatHandler.UnreadSummary)

	authed.GET("/push/public-key", pushHandler.PublicKey)
	authed.POST("/push/subscriptions", pushHandler.Subscribe)
	authed.DELETE("/push/subscriptions", pushHandler.Unsubscribe)

	authed.POST("/expenses", expenseHandler.Create)
	authed.GET("/expenses", expenseHandler.List)
	authed.DELETE("/expenses/:expense_id", expenseHandler.Delete)
	authed.GET("/expenses/summary/categories", expenseHandler.CategorySummary)
	authed.GET("/expenses/summary/months", expenseHandler.MonthlySummary)

	router.GET("/ws", gateway.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	log.Printf("listening on :%s (env=%s, bot_user_id=%d)", cfg.Port, cfg.Environment, botUserID)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// ensureBotAccount resolves the auto-responder account, creating it on first
// boot. The account gets a random password; it is never logged into directly.
func ensureBotAccount(ctx context.Context, users repositories.UserRepository, username string) (int, error) {
	if username == "" {
		return 0, nil
	}

	user, err := users.GetUserByUsername(ctx, username)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return 0, err
	}

	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return 0, err
	}
	created, err := users.CreateUser(ctx, username, "", hash)
	if errors.Is(err, repositories.ErrUsernameTaken) {
		// Another instance won the race; read its row.
		existing, lookupErr := users.GetUserByUsername(ctx, username)
		if lookupErr != nil {
			return 0, lookupErr
		}
		return existing.ID, nil
	}
	if err != nil {
		return 0, err
	}
	log.Printf("created bot account %q (id=%d)", username, created.ID)
	return created.ID, nil
}
