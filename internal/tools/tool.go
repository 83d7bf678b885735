package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnrecoverable marks tool errors that must abort the calling step
// rather than be reported back as text.
var ErrUnrecoverable = errors.New("unrecoverable tool failure")

// Tool defines the interface for an executable tool.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args Args) (string, error)
}

// CallObserver is notified after every tool call.
type CallObserver interface {
	ToolCalled(name string, err error)
}

// Registry holds registered tools and provides lookup.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	observer CallObserver
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, replacing any tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// SetObserver installs a hook that sees every call.
func (r *Registry) SetObserver(o CallObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Call normalizes raw, runs the named tool and returns its text. Input and
// store problems come back as "Error: ..." text with a nil error; only
// cancellation and ErrUnrecoverable failures are returned as errors.
func (r *Registry) Call(ctx context.Context, name string, raw any) (text string, err error) {
	t, ok := r.Get(name)
	if !ok {
		r.observe(name, fmt.Errorf("unknown tool"))
		return fmt.Sprintf("Error: unknown tool %q", name), nil
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("tool panicked", "tool", name, "panic", p)
			err = fmt.Errorf("%w: tool %s panicked: %v", ErrUnrecoverable, name, p)
			text = ""
		}
		r.observe(name, err)
	}()

	out, execErr := t.Execute(ctx, Normalize(raw))
	if execErr == nil {
		return out, nil
	}
	if errors.Is(execErr, ErrUnrecoverable) || errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
		return "", fmt.Errorf("tool %s: %w", name, execErr)
	}
	slog.Debug("tool returned error", "tool", name, "error", execErr)
	return "Error: " + execErr.Error(), nil
}

func (r *Registry) observe(name string, err error) {
	r.mu.RLock()
	o := r.observer
	r.mu.RUnlock()
	if o != nil {
		o.ToolCalled(name, err)
	}
}

// Func is a Tool built from a function.
type Func struct {
	name   string
	desc   string
	params json.RawMessage
	fn     func(ctx context.Context, args Args) (string, error)
}

// NewFunc returns a Tool named name that runs fn.
func NewFunc(name, desc, params string, fn func(ctx context.Context, args Args) (string, error)) *Func {
	if params == "" {
		params = `{"type":"object","properties":{}}`
	}
	return &Func{name: name, desc: desc, params: json.RawMessage(params), fn: fn}
}

func (f *Func) Name() string                { return f.name }
func (f *Func) Description() string         { return f.desc }
func (f *Func) Parameters() json.RawMessage { return f.params }

func (f *Func) Execute(ctx context.Context, args Args) (string, error) {
	return f.fn(ctx, args)
}
