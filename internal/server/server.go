package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/millbrook-county/civic-portal/backend/internal/database"
	"github.com/millbrook-county/civic-portal/backend/internal/handlers"
	"github.com/millbrook-county/civic-portal/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Create unified handler over the service graph
	handler := handlers.NewHandler(db.GetDB())

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestID())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Identity and auth routes (public)
		api.POST("/verify-identity", s.handler.Auth.VerifyIdentity)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)
		api.POST("/reset-password", s.handler.Auth.ResetPassword)

		// Poll routes (public reads)
		api.GET("/polls", s.handler.Poll.GetPolls)
		api.GET("/polls/:id", s.handler.Poll.GetPoll)
		api.GET("/polls/:id/results", s.handler.Poll.GetResults)
		api.GET("/polls/:id/options/:optionId/voters", s.handler.Poll.GetOptionVoters)
		api.GET("/polls/:id/comments", s.handler.Poll.GetComments)

		// Suggestion routes (public reads)
		api.GET("/suggestions", s.handler.Poll.GetSuggestions)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/polls/:id/vote", s.handler.Poll.Vote)
			protected.POST("/polls/:id/comments", s.handler.Poll.CreateComment)
			protected.POST("/suggestions", s.handler.Poll.CreateSuggestion)

			// Admin dispatch; the gateway itself re-checks the admin flag
			protected.POST("/admin-action", s.handler.Admin.AdminAction)
		}
	}

	return r
}
