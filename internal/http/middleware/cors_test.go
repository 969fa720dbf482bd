package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func assertFixedHeaders(t *testing.T, h http.Header) {
	t.Helper()
	for k, v := range FixedHeaders() {
		if got := h.Get(k); got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestFixedCORS_PreflightAnyPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(FixedCORS())
	r.POST("/profiles", func(c *gin.Context) { t.Fatalf("handler must not run for OPTIONS") })
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.NoMethod(func(c *gin.Context) { c.Status(http.StatusMethodNotAllowed) })

	for _, p := range []string{"/profiles", "/anything/else", "/"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("OPTIONS %s -> %d", p, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("OPTIONS %s body = %q", p, w.Body.String())
		}
		assertFixedHeaders(t, w.Header())
	}
}

func TestFixedCORS_HeadersWithoutOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(FixedCORS())
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/png", func(c *gin.Context) {
		c.Header("Content-Type", "image/png")
		c.Data(http.StatusOK, "image/png", []byte{0x89})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assertFixedHeaders(t, w.Header())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/png", nil))
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type override lost: %q", ct)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != CORSAllowOrigin {
		t.Fatalf("CORS header missing on PNG")
	}
}
