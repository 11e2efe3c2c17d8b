// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge exposes named backend commands to the front end. Commands take
// JSON arguments and return either a value or a rejection message.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownCommand is returned by Invoke for unregistered command names.
var ErrUnknownCommand = errors.New("unknown command")

// Handler runs a command against its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// ArgumentError reports arguments that could not be decoded or validated.
type ArgumentError struct {
	Command string
	Err     error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid args for command %s: %v", e.Command, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Rejection is a command's error result. The message is handed to the front
// end as-is and may be empty.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Reject wraps message as a command rejection.
func Reject(message string) error {
	return &Rejection{Message: message}
}

// Validator is implemented by argument types that check their own fields.
type Validator interface {
	Validate() error
}

// Registry maps command names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Handler)}
}

// Register adds a command. Names must be non-empty and unique.
func (r *Registry) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("command name is required")
	}
	if h == nil {
		return fmt.Errorf("command %s: handler is required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}
	r.commands[name] = h
	return nil
}

// Names returns registered command names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. Empty args are treated as an empty object.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	r.mu.RLock()
	h, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	out, err := h(ctx, args)
	var argErr *ArgumentError
	if errors.As(err, &argErr) && argErr.Command == "" {
		argErr.Command = name
	}
	return out, err
}

// Typed adapts fn into a Handler that decodes its arguments into A. When A
// implements Validator the decoded value is validated before fn runs.
func Typed[A any, R any](fn func(ctx context.Context, args A) (R, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &ArgumentError{Err: err}
		}
		if v, ok := any(args).(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, &ArgumentError{Err: err}
			}
		}
		return fn(ctx, args)
	}
}
