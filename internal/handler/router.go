package handler

import (
	"net/http"
	"time"

	"github.com/Kosench/shortlink/internal/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	// RateLimit is applied to every route when set.
	RateLimit gin.HandlerFunc
}

func NewRouter(cfg RouterConfig, urls *URLHandler, health *HealthHandler) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit != nil {
		router.Use(cfg.RateLimit)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.Failure("Endpoint not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, model.Failure("Method not allowed"))
	})

	router.GET("/", health.Root)
	router.GET("/health", health.Health)
	router.GET("/info", health.Info)

	api := router.Group("/api")
	{
		api.POST("/shorten", urls.Shorten)
		api.GET("/stats/:shortCode", urls.Stats)
	}

	router.GET("/:shortCode", urls.Redirect)

	return router
}
