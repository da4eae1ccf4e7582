package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Userride/gmail-var-backend/internal/config"
	"github.com/Userride/gmail-var-backend/internal/handlers"
	"github.com/Userride/gmail-var-backend/internal/middleware"
	"github.com/Userride/gmail-var-backend/internal/migrations"
	"github.com/Userride/gmail-var-backend/internal/repositories"
	"github.com/Userride/gmail-var-backend/internal/routes"
	"github.com/Userride/gmail-var-backend/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Userride/gmail-var-backend/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	if err := runMigrations(db); err != nil {
		log.Fatal("failed to run migrations: ", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	sessionService := services.NewSessionService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.TTLHours)*time.Hour,
	)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo, emailService, authService, cfg.Server.BaseURL)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, sessionService, cfg.Client.BaseURL)

	// === Gin ===
	router := gin.Default()
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
