package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"prajavaradhi-be/config"
	"prajavaradhi-be/controllers"
	"prajavaradhi-be/middlewares"
	"prajavaradhi-be/routes"
	"prajavaradhi-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		config.Logger().Info("No .env file found")
	}

	config.ConnectDB()

	issueCollection := config.GetCollection("issues")
	if err := store.EnsureIssueIndexes(issueCollection); err != nil {
		config.Logger().Fatal("Failed to ensure issue indexes", zap.Error(err))
	}

	users := store.NewMongoUserStore(config.GetCollection("users"))
	issues := store.NewMongoIssueStore(issueCollection)

	controllers.Init(users, issues)
	middlewares.Init(users)

	config.ConnectRedis()

	r := gin.Default()
	r.Use(cors.New(corsConfig()))

	routes.AuthRoutes(r)
	routes.IssueRoutes(r, middlewares.NewRedisQuotaCounter(config.RedisClient), issueLimit())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		config.Logger().Fatal("Failed to start server", zap.Error(err))
	}
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func issueLimit() int {
	if raw := os.Getenv("ISSUE_RATE_LIMIT"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return 5
}
