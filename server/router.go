package server

import (
	"net/http"
	"time"

	httpHandler "playlist-service/interfaces/http"
	"playlist-service/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	playlistHandler httpHandler.IPlaylistHandler,
	stream gin.HandlerFunc,
	allowOrigins []string,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowOrigins)))

	router.GET("/healthz", playlistHandler.Health)

	api := router.Group("api")
	api.GET("/playlist", playlistHandler.GetPlaylist)
	api.GET("/get-playlist", playlistHandler.GetPlaylist)
	if stream != nil {
		api.GET("/playlist/stream", stream)
	}

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	})

	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Cache-Control"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range allowOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowOrigins
	return cfg
}
