package main

import (
	"fmt"
	"log"
	"net/http"

	"globalroom/backend/internal/auth"
	"globalroom/backend/internal/config"
	"globalroom/backend/internal/database"
	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/handler"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "globalroom/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Global Room API
// @version         1.0
// @description     This is the API for the Global Room chat service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// The change feed rides on redis pub/sub so events reach every instance;
	// without a redis URL a single instance falls back to the in-process bus.
	var changes feed.Feed
	if config.AppConfig.RedisURL != "" {
		redisFeed, err := feed.NewRedisFeed(config.AppConfig.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisFeed.Close()
		changes = redisFeed
		log.Println("Change feed connected to redis.")
	} else {
		changes = feed.NewBus()
		log.Println("Warning: REDIS_URL not set, using the in-process change feed")
	}

	handler.Setup(gateway.NewGormStore(database.DB, changes), changes)
	defer handler.Shutdown()

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
		}

		// Room routes (protected)
		roomRoutes := apiV1.Group("/room")
		roomRoutes.Use(auth.AuthMiddleware())
		{
			roomRoutes.GET("/view", handler.GetRoomView)
			roomRoutes.GET("/stream", handler.StreamRoom)
			roomRoutes.POST("/messages", handler.SendMessage)
			roomRoutes.PUT("/messages/:id", handler.EditMessage)
			roomRoutes.DELETE("/messages/:id", handler.DeleteMessage)
			roomRoutes.POST("/messages/:id/edit", handler.BeginEdit)
			roomRoutes.DELETE("/edit", handler.CancelEdit)
			roomRoutes.POST("/leave", handler.LeaveRoom)
		}
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ListenAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ListenAddr))
}
