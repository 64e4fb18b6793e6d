package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// ZerologTracer writes spans and events as structured log lines. A span's
// fields ride along in the context, so nested spans and events inherit the
// exchange id of the span they run under.
type ZerologTracer struct {
	logger zerolog.Logger
}

func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger}
}

func (t *ZerologTracer) from(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return t.logger
}

// StartSpan logs span_start and returns a func that logs span_end with the
// elapsed time. A non-nil error raises span_end to warn.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	span := t.from(ctx).With().Str("span", name).Fields(attrs).Logger()
	ctx = span.WithContext(ctx)

	started := time.Now()
	span.Debug().Str("event", "span_start").Send()

	return ctx, func(err error) {
		ev := span.Debug()
		if err != nil {
			ev = span.Warn().Err(err)
		}
		ev.Str("event", "span_end").Dur("elapsed", time.Since(started)).Send()
	}
}

// Event logs a named point in time under the current span, if any.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	l := t.from(ctx)
	l.Info().Fields(attrs).Str("event", name).Send()
}

var _ ports.Tracer = (*ZerologTracer)(nil)
