package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"tallerlink/internal/adapter/api"
	"tallerlink/internal/adapter/api/handler"
	apimiddleware "tallerlink/internal/adapter/api/middleware"
	"tallerlink/internal/adapter/api/router"
	"tallerlink/internal/adapter/repository"
	"tallerlink/internal/infrastructure/broadcast"
	"tallerlink/internal/infrastructure/firebase"
	"tallerlink/internal/infrastructure/storage"
	"tallerlink/internal/infrastructure/websocket"
	"tallerlink/internal/usecase"
	"tallerlink/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	// Service account JSON wins (production); file path is the local fallback.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			credentialsPath = "./serviceAccountKey.json"
		}

		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}

		log.Printf("Using Firebase service account from file: %s", credentialsPath)
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.FirebaseProject, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	var broadcaster broadcast.Broadcaster
	if cfg.NatsURL != "" {
		natsBroadcaster, err := broadcast.NewNatsBroadcaster(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS at %s: %v", cfg.NatsURL, err)
		}
		defer natsBroadcaster.Close()
		broadcaster = natsBroadcaster
	} else {
		broadcaster = broadcast.NewNoop()
	}

	dispatcher := usecase.NewNotificationDispatcher(wsManager, broadcaster)
	if err := dispatcher.Run(ctx); err != nil {
		log.Fatalf("Failed to start notification dispatcher: %v", err)
	}

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, wsManager, dispatcher)
	wsManager.SetEventHandler(chatUseCase)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	handlers := router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware, userRepo),
		File:      handler.NewFileHandler(storageClient),
		Event:     handler.NewEventHandler(dispatcher, userRepo),
		Health:    handler.NewHealthHandler(firebaseAuthClient, wsManager),
		DevToken:  handler.NewDevTokenHandler(firebaseAuthClient),
	}

	router.Setup(e, handlers, authMiddleware, adminMiddleware, cfg.Environment)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
