// Package router provides HTTP routing configuration for the grantcue API.
// It sets up routes and applies middleware like CORS, auth, and metrics.
package router

import (
	"net/http"

	"github.com/grantcue/grantcue/internal/auth"
	"github.com/grantcue/grantcue/internal/handlers"
	"github.com/grantcue/grantcue/internal/metrics"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux       *http.ServeMux
	handlers  *handlers.Handlers
	authmw    func(http.Handler) http.Handler
	collector *metrics.Collector
}

// NewRouter creates a new router with all routes configured. collector may
// be nil, in which case request metrics are not recorded.
func NewRouter(h *handlers.Handlers, jwt auth.JWT, collector *metrics.Collector) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		handlers:  h,
		authmw:    auth.Middleware(jwt),
		collector: collector,
	}
	r.setupRoutes()
	return r
}

// protected wraps a handler func with the JWT auth middleware.
func (r *Router) protected(fn http.HandlerFunc) http.HandlerFunc {
	wrapped := r.authmw(fn)
	return wrapped.ServeHTTP
}

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Alert endpoints
	r.mux.HandleFunc("/api/v1/alerts", r.protected(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateAlert(w, req)
		case http.MethodGet:
			if req.URL.Query().Get("alert_id") != "" {
				r.handlers.GetAlert(w, req)
			} else {
				r.handlers.ListAlerts(w, req)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/alerts/update", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut {
			r.handlers.UpdateAlert(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/alerts/toggle", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.ToggleAlertActive(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/alerts/delete", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodDelete {
			r.handlers.DeleteAlert(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/alerts/matches", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.ListAlertMatches(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Matching run trigger, guarded by the scheduler token inside the handler
	r.mux.HandleFunc("/api/v1/alerts/run", r.handlers.RunAlerts)

	// Webhook endpoints
	r.mux.HandleFunc("/api/v1/webhooks", r.protected(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateWebhook(w, req)
		case http.MethodGet:
			if req.URL.Query().Get("webhook_id") != "" {
				r.handlers.GetWebhook(w, req)
			} else {
				r.handlers.ListWebhooks(w, req)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/webhooks/update", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut {
			r.handlers.UpdateWebhook(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/webhooks/toggle", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.ToggleWebhookActive(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/webhooks/delete", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodDelete {
			r.handlers.DeleteWebhook(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/webhooks/deliveries", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.ListDeliveries(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Integration endpoints
	r.mux.HandleFunc("/api/v1/integrations", r.protected(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateIntegration(w, req)
		case http.MethodGet:
			r.handlers.ListIntegrations(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/integrations/toggle", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.ToggleIntegrationActive(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	r.mux.HandleFunc("/api/v1/integrations/delete", r.protected(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodDelete {
			r.handlers.DeleteIntegration(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Health check endpoint
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.collector)(r.mux))
}
