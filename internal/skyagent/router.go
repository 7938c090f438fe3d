package skyagent

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saaga0h/jeeves-sky/pkg/health"
)

// NewRouter wires the HTTP handlers into a gin engine
func NewRouter(handler *Handler, checker *health.Checker, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		errorHandlingMiddleware(logger),
	)

	router.GET("/health", gin.WrapF(checker.HandlerFunc()))
	router.GET("/health/detailed", gin.WrapF(checker.DetailedHandlerFunc()))

	api := router.Group("/api/v1")
	{
		api.GET("/sky", handler.GetSky)
		api.GET("/sky/similar", handler.GetSimilar)
		api.GET("/locations", handler.GetLocations)
	}

	return router
}

// NewServer wraps the router in an http.Server listening on port
func NewServer(port int, router http.Handler) *http.Server {
	return &http.Server{
		Addr:           fmt.Sprintf(":%d", port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
