package events

import (
	"context"
	"log/slog"
)

// LogEmitter writes every event to a structured logger.
type LogEmitter struct {
	Logger *slog.Logger
	Level  slog.Level
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	if evt == nil {
		return
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{slog.String("type", evt.EventType())}
	if payload, ok := evt.(Payload); ok {
		if rendered := payload.Event(); rendered != nil {
			attrs := make([]any, 0, len(rendered.Attributes))
			for k, v := range rendered.Attributes {
				attrs = append(attrs, slog.String(k, v))
			}
			args = append(args, slog.Group("attributes", attrs...))
		}
	}
	logger.Log(context.Background(), l.Level, "event", args...)
}
