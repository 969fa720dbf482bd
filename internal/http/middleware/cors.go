// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements FixedCORS: every response, including errors and
// preflights, carries the same cross-origin headers whether or not the
// request sent an Origin header. OPTIONS on any path is answered here with
// 200 and an empty body.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fixed response header values.
const (
	ContentTypeJSON  = "application/json"
	CORSAllowOrigin  = "*"
	CORSAllowHeaders = "Content-Type, Authorization"
	CORSAllowMethods = "GET, POST, OPTIONS"
)

// FixedHeaders returns the header set attached to every response.
func FixedHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 ContentTypeJSON,
		"Access-Control-Allow-Origin":  CORSAllowOrigin,
		"Access-Control-Allow-Headers": CORSAllowHeaders,
		"Access-Control-Allow-Methods": CORSAllowMethods,
	}
}

// FixedCORS sets the fixed headers and short-circuits preflights.
//
// Handlers that serve another media type overwrite Content-Type themselves;
// the CORS headers stay as set here.
func FixedCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range FixedHeaders() {
			h.Set(k, v)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
