package supervisor

import (
	"context"
	"log/slog"

	"github.com/nanosoftsystem/ai/internal/model"
	"github.com/nanosoftsystem/ai/internal/platform"
	"github.com/nanosoftsystem/ai/internal/resolver"
)

// launchOrder is the fixed background set of All. The services are
// independent, the order only keeps startup logs deterministic.
var launchOrder = []resolver.ServiceName{
	resolver.Bus,
	resolver.Skills,
	resolver.Audio,
	resolver.Voice,
}

// All launches the standard service set in the background, then consults
// the enclosure platform configuration and additionally launches the
// enclosure driver when the platform asks for one. A missing or broken
// platform config means no extra service, never a failure.
func (s *Supervisor) All(ctx context.Context) error {
	for _, name := range launchOrder {
		if err := s.Background(ctx, name, nil); err != nil {
			return err
		}
	}

	tag, ok := platform.Detect(ctx, s.cfg.Platform)
	if !ok {
		return nil
	}
	slog.DebugContext(ctx, "enclosure platform detected", "platform", tag)
	if tag != model.PlatformMark1 {
		return nil
	}
	return s.Background(ctx, resolver.Enclosure, nil)
}

// Debug runs All and then attaches the interactive text client in the
// foreground, blocking on it while the services run detached.
func (s *Supervisor) Debug(ctx context.Context) (int, error) {
	if err := s.All(ctx); err != nil {
		return 0, err
	}
	return s.Foreground(ctx, resolver.CLI, nil)
}
