// Package delivery routes run summaries to notification channels chosen by
// the prefix of a delivery key (e.g. "telegram:<chat id>", "log:").
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrNoHandler is returned when no handler matches a delivery key.
var ErrNoHandler = errors.New("no delivery handler")

// Handler delivers message to the destination named by key.
type Handler func(ctx context.Context, key, message string) error

// Registry routes messages to the handler with the longest matching prefix.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for keys starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver finds the handler matching key and calls it.
func (r *Registry) Deliver(ctx context.Context, key, message string) error {
	r.mu.RLock()
	var (
		best    string
		handler Handler
	)
	for prefix, h := range r.handlers {
		if strings.HasPrefix(key, prefix) && (handler == nil || len(prefix) > len(best)) {
			best, handler = prefix, h
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("%w for key %q", ErrNoHandler, key)
	}
	return handler(ctx, key, message)
}

// LogHandler writes deliveries to the structured log. It backs "log:" keys.
func LogHandler(_ context.Context, key, message string) error {
	slog.Info("run summary", "key", key, "message", message)
	return nil
}
