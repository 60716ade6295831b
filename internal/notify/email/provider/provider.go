// Package provider defines the email provider interface and registry.
// Multiple backends (SES, Resend, SMTP) register here so delivery can
// fall back when the primary is unconfigured or failing.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grantcue/grantcue/internal/shared"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string // Plain text body
	HTML    string // HTML body (optional)
}

// Provider is the interface that all email providers must implement.
type Provider interface {
	// Name returns the provider name (e.g., "ses", "resend", "smtp")
	Name() string

	// Send sends an email using this provider.
	Send(ctx context.Context, req *EmailRequest) error

	// IsConfigured returns true if the provider is properly configured.
	IsConfigured() bool
}

// Registry manages email providers with fallback support.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewRegistry creates a new email provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		fallback:  make([]string, 0),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the primary provider by name.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the fallback providers in order.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetPrimary returns the primary configured provider, falling back to
// the fallback chain and then any configured provider.
func (r *Registry) GetPrimary() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.primary != "" {
		if p, ok := r.providers[r.primary]; ok && p.IsConfigured() {
			return p, nil
		}
	}

	for _, name := range r.fallback {
		if p, ok := r.providers[name]; ok && p.IsConfigured() {
			slog.Warn("Primary email provider not configured, using fallback",
				"primary", r.primary,
				"fallback", name,
			)
			return p, nil
		}
	}

	for name, p := range r.providers {
		if p.IsConfigured() {
			slog.Warn("Using first available email provider", "name", name)
			return p, nil
		}
	}

	return nil, fmt.Errorf("no configured email provider available")
}

// Send sends an email using the best available provider, trying the
// fallback chain when the primary fails.
func (r *Registry) Send(ctx context.Context, req *EmailRequest) error {
	p, err := r.GetPrimary()
	if err != nil {
		return err
	}

	err = p.Send(ctx, req)
	if err != nil {
		r.mu.RLock()
		fallbacks := r.fallback
		r.mu.RUnlock()

		for _, name := range fallbacks {
			fb, ok := r.Get(name)
			if !ok || !fb.IsConfigured() || fb.Name() == p.Name() {
				continue
			}
			slog.Warn("Primary email provider failed, trying fallback",
				"primary", p.Name(),
				"fallback", name,
				"error", err,
			)
			if fallbackErr := fb.Send(ctx, req); fallbackErr == nil {
				return nil
			}
		}
		return err
	}

	return nil
}

// GetEnvOrDefault returns env var value or default.
func GetEnvOrDefault(key, defaultValue string) string {
	return shared.GetEnvOrDefault(key, defaultValue)
}
