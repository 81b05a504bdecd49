package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"irdesk/internal/adapter/api"
	"irdesk/internal/adapter/api/handler"
	apimiddleware "irdesk/internal/adapter/api/middleware"
	"irdesk/internal/adapter/api/router"
	"irdesk/internal/adapter/repository"
	"irdesk/internal/infrastructure/firebase"
	"irdesk/internal/infrastructure/websocket"
	"irdesk/internal/usecase"
	"irdesk/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from env var in production, file path for local runs.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, wsManager)
	conversationUseCase := usecase.NewConversationUseCase(conversationRepo, messageRepo, userRepo, notificationUseCase, wsManager)
	messageUseCase := usecase.NewMessageUseCase(messageRepo, conversationUseCase, notificationUseCase, wsManager)
	escalationUseCase := usecase.NewEscalationUseCase(conversationUseCase, messageUseCase, userRepo, notificationUseCase, wsManager, cfg.DefaultOversightID)

	handler.SetupHealthHandler(firebaseAuthClient)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient, userUseCase)
	roleMiddleware := apimiddleware.NewRoleMiddleware(userRepo)

	router.Setup(e, router.Handlers{
		Conversation: handler.NewConversationHandler(conversationUseCase),
		Message:      handler.NewMessageHandler(messageUseCase),
		Escalation:   handler.NewEscalationHandler(escalationUseCase),
		Notification: handler.NewNotificationHandler(notificationUseCase),
		WebSocket:    handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins),
	}, authMiddleware, roleMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
