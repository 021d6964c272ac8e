// Package activity delivers out-of-band messages to the user while an action
// is still running, alongside the action's returned result.
package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink pushes a message to the current conversation.
type Sink interface {
	SendActivity(ctx context.Context, message string) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, message string) error

// SendActivity calls fn.
func (fn Func) SendActivity(ctx context.Context, message string) error {
	return fn(ctx, message)
}

// Writer writes each message to an io.Writer followed by a blank line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SendActivity implements Sink.
func (s *Writer) SendActivity(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s\n\n", message)
	return err
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// SendActivity implements Sink.
func (r *Recorder) SendActivity(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages in send order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Send delivers message through sink. A nil sink is a no-op and delivery
// errors are logged, never returned.
func Send(ctx context.Context, sink Sink, logger *slog.Logger, message string) {
	if sink == nil {
		return
	}
	if err := sink.SendActivity(ctx, message); err != nil && logger != nil {
		logger.Warn("activity delivery failed", "err", err)
	}
}
