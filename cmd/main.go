package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/olegdemchenko/chat-service/internal/api/handler"
	"github.com/olegdemchenko/chat-service/internal/auth"
	"github.com/olegdemchenko/chat-service/internal/chathub"
	"github.com/olegdemchenko/chat-service/internal/config"
	"github.com/olegdemchenko/chat-service/internal/models"
	"github.com/olegdemchenko/chat-service/internal/session"
	"github.com/olegdemchenko/chat-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting chat-service...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	sessions := session.NewRedisStore(rdb)
	registry := session.NewRegistry(sessions)

	hub := chathub.NewHub(s, rdb)
	router := chathub.NewRouter(hub, s, registry)
	presence := chathub.NewPresence(hub, registry, s)

	var provider auth.Provider
	var devAuth *auth.JWTProvider
	if cfg.AuthServiceURL != "" {
		provider = auth.NewHTTPProvider(cfg.AuthServiceURL)
	} else {
		log.Println("Warning: AUTH_SERVICE_URL not set, using local dev tokens")
		devAuth = auth.NewJWTProvider(cfg.JWTSecret)
		provider = devAuth
	}

	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, router, presence, s, provider, devAuth)

	r.GET("/ws", h.ServeWebSocket)
	if devAuth != nil {
		r.GET("/token", h.GetToken)
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
