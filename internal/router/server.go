// Package router provides HTTP routing configuration for the grantcue API.
package router

import (
	"net/http"
	"time"

	"github.com/grantcue/grantcue/internal/auth"
	"github.com/grantcue/grantcue/internal/handlers"
	"github.com/grantcue/grantcue/internal/metrics"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, jwt auth.JWT, collector *metrics.Collector) *http.Server {
	router := NewRouter(h, jwt, collector)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // matching runs can take a while
		IdleTimeout:  60 * time.Second,
	}
}
