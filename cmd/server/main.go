package main

import (
	"log"
	"net/http"

	_ "contactbook/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"contactbook/internal/auth"
	"contactbook/internal/cache"
	"contactbook/internal/config"
	"contactbook/internal/db"
	"contactbook/internal/handler"
	"contactbook/internal/mailer"
	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/router"
	"contactbook/internal/service"
	"contactbook/internal/storage"
)

// @title Contact Book API
// @version 1.0
// @description Contact management API with JWT authentication, email confirmation, and birthday queries.
// @host localhost:8000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Contact{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	contactRepo := repository.NewContactRepository(gormDB)

	// Initialize collaborators
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sender := mailer.NewSMTPSender(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom)
	dispatcher := mailer.NewDispatcher(sender, 64)
	defer dispatcher.Close()
	uploader := storage.NewHTTPUploader(cfg.AvatarUploadURL, cfg.AvatarAPIKey)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, dispatcher)
	contactService := service.NewContactService(contactRepo)
	userService := service.NewUserService(userRepo, uploader)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService)

	// Register routes
	router.Register(e, cfg, userRepo, cacheClient, authHandler, contactHandler, userHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
