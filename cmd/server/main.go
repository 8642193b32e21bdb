package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/hivedesk/hivedesk-backend/internal/config"
	"github.com/hivedesk/hivedesk-backend/internal/database"
	"github.com/hivedesk/hivedesk-backend/internal/handlers"
	"github.com/hivedesk/hivedesk-backend/internal/notify"
	"github.com/hivedesk/hivedesk-backend/internal/realtime"
	"github.com/hivedesk/hivedesk-backend/internal/routes"
	"github.com/hivedesk/hivedesk-backend/internal/services"
	"github.com/hivedesk/hivedesk-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	mongoStore := store.NewMongo(database.DB)
	if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	directory := store.NewDirectory(database.PostgresDB)

	// Realtime: Redis pub/sub fans events out across instances; the hub
	// feeds this instance's WebSocket connections.
	hub := realtime.NewHub()
	dispatcher := realtime.NewPublisher(database.RedisClient)
	realtime.StartSubscriber(context.Background(), database.RedisClient, hub)

	var notifier notify.Notifier = notify.NewRedisQueue(database.RedisClient)

	sessions := services.NewSessionService(database.RedisClient)
	groupService := services.NewGroupService(mongoStore, mongoStore, directory, dispatcher, notifier)
	directService := services.NewDirectService(mongoStore, directory, dispatcher, notifier)

	var cloudinarySvc *services.CloudinaryService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		svc, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			cloudinarySvc = svc
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, routes.Handlers{
		Groups:   handlers.NewGroupHandler(groupService),
		Direct:   handlers.NewDirectHandler(directService),
		Upload:   handlers.NewUploadHandler(cloudinarySvc),
		WS:       handlers.NewWSHandler(sessions, hub),
		Sessions: sessions,
	})

	log.Printf("🚀 Hivedesk backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
