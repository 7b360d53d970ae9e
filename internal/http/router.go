// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"goshop/internal/http/handlers"
	"goshop/internal/http/middleware"
	"goshop/internal/modules/analytics"
	"goshop/internal/modules/catalog"
	"goshop/internal/modules/transcript"
)

func NewRouter(
	engine handlers.Conversations,
	catalogService *catalog.Service,
	analyticsService *analytics.Service,
	transcriptStore *transcript.Store,
	log *logrus.Logger,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	chatHandler := handlers.NewChatHandler(engine)
	r.POST("/chat", chatHandler.Handle)

	catalogHandler := handlers.NewCatalogHandler(catalogService)
	r.GET("/items", catalogHandler.List)
	r.POST("/items", catalogHandler.Add)
	r.PUT("/items/:nombre", catalogHandler.Update)
	r.DELETE("/items/:nombre", catalogHandler.Delete)

	transcriptHandler := handlers.NewTranscriptHandler(transcriptStore)
	r.GET("/transcripts/:user_id", transcriptHandler.Recent)

	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	r.GET("/analytics/engagement", analyticsHandler.Engagement)
	r.GET("/analytics/goals", analyticsHandler.Goals)
	r.GET("/analytics/products", analyticsHandler.Products)
	r.GET("/analytics/locations", analyticsHandler.Locations)
	r.GET("/analytics/daily", analyticsHandler.Daily)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
