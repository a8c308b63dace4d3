package handler

import "github.com/gin-gonic/gin"

const clientIDKey = "client_id"

// ClientID returns the per-session client identifier placed on the context
// by the session middleware. Tile records are scoped by it.
func ClientID(c *gin.Context) string {
	if id, ok := c.Get(clientIDKey); ok {
		return id.(string)
	}
	return ""
}

// SetClientID is called by the session middleware only.
func SetClientID(c *gin.Context, id string) {
	c.Set(clientIDKey, id)
}
