package main

import (
	"flag"
	"fmt"

	"downtodine/api/middleware"
	"downtodine/api/routes"
	"downtodine/config"
	"downtodine/db"
	"downtodine/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	_ = godotenv.Load()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	setupLogging(config.AppConfig.Logs.Level)
	logrus.Info("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	if config.AppConfig.Redis.Host != "" {
		if err := services.InitRedis(); err != nil {
			logrus.WithError(err).Warn("Redis unavailable, rate limiting disabled")
		}
		defer func() { _ = services.CloseRedis() }()
	}

	if config.AppConfig.RabbitMQ.URL != "" {
		if err := services.InitRabbitMQ(config.AppConfig.RabbitMQ.URL); err != nil {
			logrus.WithError(err).Warn("RabbitMQ unavailable, event publishing disabled")
		}
		defer services.CloseRabbitMQ()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Prometheus())
	router.Use(middleware.RateLimit(services.RedisClient, config.AppConfig.RateLimit.PerMinute))

	tokens := services.NewTokenServiceFromConfig()
	routes.PublicApi(router, db.ORM, tokens)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if config.AppConfig.Backend.Port == 0 {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
