package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoforge/dyntile/internal/infrastructure/http/v1/handler"
	"github.com/geoforge/dyntile/pkg/logger"
)

const sessionCookie = "session_id"

func NewRouter(h *handler.Handler, l logger.Logger, cookieMaxAge time.Duration) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(ginZapLogger(l))
	r.Use(sessionMiddleware(cookieMaxAge))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Dynamic Tile Service")
	})

	r.GET("/healthz", h.Healthz)
	r.GET("/fetch", h.FetchTile)
	r.GET("/dynamicboundingbox", h.UpdatedTiles)
	r.POST("/image", h.IngestImage)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// sessionMiddleware issues a uuid session cookie when the request carries
// none; its value scopes tile records per client.
func sessionMiddleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
		}
		// Refresh on every request to keep the session alive.
		c.SetCookie(sessionCookie, id, int(maxAge.Seconds()), "/", "", false, true)
		handler.SetClientID(c, id)

		c.Next()
	}
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
