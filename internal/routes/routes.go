package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/auth"
	"pharma-catalog/internal/handlers"
	"pharma-catalog/internal/logger"
)

type Deps struct {
	Products      *handlers.ProductHandler
	Announcements *handlers.AnnouncementHandler
	AI            *handlers.AIHandler
	Auth          *handlers.AuthHandler
	Manager       *auth.Manager
	Health        gin.HandlerFunc
	Log           *logger.Logger
	CORSOrigins   []string
}

// NewRouter arma el engine con middlewares y registra todas las rutas
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(d.Log))
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	RegisterRoutes(router, d)
	return router
}

func RegisterRoutes(router *gin.Engine, d Deps) {
	router.GET("/healthz", d.Health)

	admin := handlers.RequireAdmin(d.Manager)
	api := router.Group("/api")
	{
		// Públicas
		api.GET("/products", d.Products.ListProducts)
		api.GET("/products/slug/:slug", d.Products.GetProductBySlug)
		api.GET("/products/:id", d.Products.GetProduct)
		api.GET("/categories", d.Products.ListCategories)
		api.GET("/announcements", d.Announcements.ListPublic)
		api.POST("/admin/login", d.Auth.Login)

		// Requieren token de admin
		api.POST("/products", admin, d.Products.CreateProduct)
		api.PUT("/products/:id", admin, d.Products.UpdateProduct)
		api.DELETE("/products/:id", admin, d.Products.DeleteProduct)
		api.POST("/products/:id/images", admin, d.Products.UploadImages)

		api.POST("/ai/analyze-composition", admin, d.AI.AnalyzeComposition)
		api.POST("/ai/generate-product", admin, d.AI.GenerateProduct)

		ann := api.Group("/admin/announcements", admin)
		ann.GET("", d.Announcements.ListAll)
		ann.POST("", d.Announcements.Create)
		ann.PUT("/:id", d.Announcements.Update)
		ann.DELETE("/:id", d.Announcements.Delete)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
