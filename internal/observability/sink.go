package observability

import (
	"context"
	"log/slog"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

// SlogSink writes probe events to the structured logger.
type SlogSink struct{}

func NewSlogSink() *SlogSink {
	return &SlogSink{}
}

func (SlogSink) Emit(ctx context.Context, ev domain.ProbeEvent) error {
	LoggerFromContext(ctx).LogAttrs(ctx, levelOf(ev.Level), ev.Type,
		slog.String("event_id", ev.ID),
		slog.String("session_id", string(ev.SessionID)),
		slog.String("who", ev.Who),
		slog.Any("tags", ev.Tags),
		slog.Any("payload", ev.Payload),
	)
	return nil
}

func levelOf(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
