package log

import (
	"context"
	"log/slog"
	"os"
)

type slogKeyT struct{}

var slogKey slogKeyT

// ContextHandler is an slog.Handler which adds attributes stored in a
// context by ContextAttrs to every record. The launcher uses it to tag all
// records of one invocation with the command name, pid and invocation id.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(handler slog.Handler) ContextHandler {
	return ContextHandler{
		Handler: handler,
	}
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if a, ok := ctx.Value(slogKey).([]slog.Attr); ok {
		r.AddAttrs(a...)
	}

	return h.Handler.Handle(ctx, r)
}

func ContextAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	a, ok := ctx.Value(slogKey).([]slog.Attr)
	if !ok || a == nil {
		a = make([]slog.Attr, 0, len(attrs))
	}
	a = append(a, attrs...)
	return context.WithValue(ctx, slogKey, a)
}

// WithInvocation tags ctx so every record of this launcher run carries
// the command name, pid and invocation id.
func WithInvocation(ctx context.Context, command, invocation string) context.Context {
	return ContextAttrs(ctx, slog.Group("aictl",
		slog.String("cmd", command),
		slog.Int("pid", os.Getpid()),
		slog.String("invocation", invocation),
	))
}

// New builds the default launcher logger: JSON records on stderr wrapped
// in a ContextHandler. Verbose selects the debug level.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	})
	return slog.New(NewContextHandler(base))
}
