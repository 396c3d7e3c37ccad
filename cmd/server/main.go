package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/5inee/predict-battle/internal/config"
	"github.com/5inee/predict-battle/internal/database"
	"github.com/5inee/predict-battle/internal/handlers"
	"github.com/5inee/predict-battle/internal/logging"
	"github.com/5inee/predict-battle/internal/middleware"
	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           PredictBattle API
// @version         1.0
// @description     API for prediction battle sessions with registered and guest participants
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	logging.Setup()

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	guestService := services.NewGuestService(db)
	sessionService := services.NewSessionService(db, cfg.CreationSecret)

	authHandler := handlers.NewAuthHandler(authService)
	guestHandler := handlers.NewGuestHandler(guestService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	predictionHandler := handlers.NewPredictionHandler(sessionService)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Metrics(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWTAuth(authService), authHandler.Me)
		}

		guests := api.Group("/guests")
		{
			guests.POST("", guestHandler.RegisterGuest)
			guests.GET("/:guest_id", guestHandler.GetGuest)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", middleware.JWTAuth(authService), sessionHandler.CreateSession)
			sessions.GET("/mine", middleware.JWTAuth(authService), sessionHandler.ListMySessions)
			sessions.GET("/:code", middleware.FlexAuth(authService), sessionHandler.GetSession)
			sessions.POST("/:code/join", middleware.FlexAuth(authService), sessionHandler.JoinSession)
		}

		predictions := api.Group("/predictions")
		predictions.Use(middleware.FlexAuth(authService))
		{
			predictions.POST("", predictionHandler.SubmitPrediction)
			predictions.GET("/session/:id", predictionHandler.GetSessionPredictions)
		}
	}

	slog.Info("server starting", "port", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
