package middleware

import (
	"net/http"

	"notiq/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a CORS middleware shaped from config. With no origins
// configured all origins are allowed, and methods/headers fall back to
// what the API surface actually uses.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: cfg.AllowedHeaders,
	}

	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "X-API-Key", requestIDHeader}
	}

	return cors.New(c)
}
