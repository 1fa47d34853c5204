package main

import (
	"context"
	"encoding/json"
	"log"

	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"oddservices/internal/adapter/api"
	"oddservices/internal/adapter/api/handler"
	"oddservices/internal/adapter/api/router"
	adapterrepo "oddservices/internal/adapter/repository"
	"oddservices/internal/domain/entity"
	"oddservices/internal/domain/repository"
	"oddservices/internal/infrastructure/websocket"
	"oddservices/internal/usecase"
	"oddservices/pkg/config"
	"oddservices/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var listingRepo repository.ListingRepository
	if cfg.FirebaseProject == "" {
		if cfg.Environment != "development" {
			log.Fatalf("FIREBASE_PROJECT_ID is required outside development")
		}
		logger.Warn("FIREBASE_PROJECT_ID not set; using in-memory listing store")
		listingRepo = adapterrepo.NewMemoryListingRepository()
	} else {
		var opts []option.ClientOption
		if cfg.ServiceAccountJSON != "" {
			log.Printf("Using Firebase service account from environment variable")
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
		} else if cfg.ServiceAccountPath != "" {
			log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
			opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
		}

		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		firestoreClient, err := firebaseApp.Firestore(ctx)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		listingRepo = adapterrepo.NewFirestoreListingRepository(firestoreClient, cfg.ListingCollection)
	}

	listingUseCase := usecase.NewListingUseCase(listingRepo)

	hub := websocket.NewHub()
	hub.Start(ctx)

	unsubscribe, err := listingUseCase.Subscribe(ctx, func(listings []entity.Listing) {
		payload, err := json.Marshal(listings)
		if err != nil {
			logger.Error("failed to encode listing snapshot: %v", err)
			return
		}
		hub.Broadcast(payload)
	})
	if err != nil {
		log.Fatalf("Failed to watch listing collection: %v", err)
	}
	defer unsubscribe()

	handler.Setup(listingUseCase)
	feedHandler := handler.NewLiveFeedHandler(hub)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	router.Setup(e)
	router.SetupFeedRouter(e, feedHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
