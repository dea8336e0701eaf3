package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	corsOrigins []string,
	systemH *SystemHandler,
	postH *PostHandler,
	categoryH *CategoryHandler,
	commentH *CommentHandler,
	chatH *ChatHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins))

	r.GET("/health", systemH.Health)
	r.GET("/db-status", systemH.DBStatus)

	posts := r.Group("/posts")
	posts.GET("", postH.ListPosts)
	posts.POST("", postH.CreatePost)
	posts.GET("/:post_id", postH.GetPost)
	posts.PUT("/:post_id", postH.UpdatePost)
	posts.DELETE("/:post_id", postH.DeletePost)

	posts.GET("/:post_id/comments", commentH.ListComments)
	posts.POST("/:post_id/comments", commentH.CreateComment)
	posts.PUT("/:post_id/comments/:comment_id", commentH.UpdateComment)
	posts.DELETE("/:post_id/comments/:comment_id", commentH.DeleteComment)

	categories := r.Group("/categories")
	categories.GET("", categoryH.ListCategories)
	categories.POST("", categoryH.CreateCategory)
	categories.GET("/:category_id", categoryH.GetCategory)
	categories.PUT("/:category_id", categoryH.UpdateCategory)
	categories.DELETE("/:category_id", categoryH.DeleteCategory)

	r.POST("/chat", chatH.Chat)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware responde headers CORS para los orígenes permitidos.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			// Credenciales solo para orígenes explícitos; con wildcard habilita CSRF.
			for _, o := range allowedOrigins {
				if o != "*" && o == origin {
					c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
					break
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
