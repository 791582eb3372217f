package router

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-service/internal/adapter/gin/handler"
	"library-service/internal/adapter/gin/middleware"
	grpcmiddleware "library-service/internal/adapter/grpc/middleware"
)

// Handlers groups the REST handlers mounted under /v1.
type Handlers struct {
	Users   *handler.UserHandler
	Catalog *handler.CatalogHandler
	Lending *handler.LendingHandler
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// An empty allowedOrigins list, or one containing "*", allows every origin.
func SetupRouter(h Handlers, rateLimiter *grpcmiddleware.RateLimiter, allowedOrigins []string, log *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(cors.New(corsConfig(allowedOrigins)))
	router.Use(middleware.RateLimiter(rateLimiter, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "library-service",
		})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/authors", h.Catalog.CreateAuthor)
		v1.GET("/authors", h.Catalog.ListAuthors)

		v1.POST("/categories", h.Catalog.CreateCategory)
		v1.GET("/categories", h.Catalog.ListCategories)

		v1.POST("/books", h.Catalog.CreateBook)
		v1.GET("/books", h.Catalog.ListBooks)
		v1.GET("/books/:id", h.Catalog.GetBook)

		v1.POST("/book-items", h.Catalog.CreateBookItem)

		users := v1.Group("/users")
		{
			users.POST("", h.Users.CreateUser)
			users.GET("", h.Users.ListUsers)
			users.GET("/by-status", h.Users.ListUsersByStatus)
			users.GET("/:id", h.Users.GetUser)
			users.GET("/:id/loans", h.Lending.ListActiveLoans)
			users.PUT("/:id/books/:book_item_id", h.Lending.ReturnBookItem)
		}

		v1.POST("/loans", h.Lending.Borrow)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
