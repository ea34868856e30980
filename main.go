package main

import (
	"log"
	"os"
	"time"

	"brandkit-app/config"
	"brandkit-app/database"
	routes "brandkit-app/internal/app/http"
	"brandkit-app/internal/domain/plans"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	plans.Load()
	database.InitDB()

	var rdb *redis.Client
	if config.REDIS_ADDR != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.REDIS_ADDR,
			Password: config.REDIS_PASSWORD,
		})
		log.Println("✅ Redis client configured:", config.REDIS_ADDR)
	} else {
		log.Println("⚠️ REDIS_ADDR not set, webhook dedup disabled")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, rdb)

	r.Run(":" + config.PORT)
}
