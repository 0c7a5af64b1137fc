// Package http wires the REST control surface and the WS upgrade route.
package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/adapters/ws"
	"github.com/dkeye/Maestro/internal/app"
	"github.com/dkeye/Maestro/internal/config"
)

// ClientTokenMiddleware gives every dashboard visitor a stable opaque id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, dispatcher *app.Dispatcher, hub *ws.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MaestroSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/dashboard.html")
	})

	h := NewHandler(dispatcher, cfg.LegacyQueryAlias)

	api := r.Group("/api")
	api.GET("/status", h.Status)
	api.GET("/guilds", h.Guilds)
	api.GET("/session/:guild_id", h.Session)

	api.POST("/join", h.Join)
	api.POST("/leave", h.Leave)
	api.POST("/play", h.Play)
	api.POST("/pause", h.Pause)
	api.POST("/resume", h.Resume)
	api.POST("/skip", h.Skip)
	api.POST("/stop", h.Stop)
	api.POST("/clear", h.Clear)
	api.POST("/volume", h.Volume)
	api.POST("/loop", h.Loop)
	api.POST("/shuffle", h.Shuffle)
	api.POST("/radio", h.Radio)
	api.POST("/crossfade", h.Crossfade)

	r.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		hub.Handle(c.Writer, c.Request)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
