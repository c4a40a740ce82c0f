package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nanosoftsystem/ai/internal/model"
	"github.com/nanosoftsystem/ai/internal/probe"
	"github.com/nanosoftsystem/ai/internal/resolver"
)

// EnvRuntime is set for spawned services when the runtime environment is
// activated.
const EnvRuntime = "ASSISTANT_RUNTIME"

// Prober answers the "already running?" question and stops an instance
// before a restart. *probe.Probe is the production implementation.
type Prober interface {
	Running(ctx context.Context, name resolver.ServiceName, target resolver.Target) (int, bool)
	Stop(ctx context.Context, name resolver.ServiceName, target resolver.Target) error
	Record(name resolver.ServiceName, rec probe.Record) error
}

// Supervisor resolves service names and starts them foreground or
// background. It runs the one-time preparation exactly once per
// invocation; the struct is created once per run and shared by all
// launch calls.
type Supervisor struct {
	cfg        model.Config
	table      resolver.Table
	probe      Prober
	invocation string

	prep func(context.Context) error

	initialized  bool
	busCautioned bool
	env          []string
}

func New(cfg model.Config) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		table:      resolver.New(cfg.BinDir),
		probe:      probe.New(cfg.RunDir),
		invocation: uuid.NewString(),
	}
	s.prep = s.runSetup
	return s
}

// WithProber replaces the process probe. This method exists for unit
// testing only.
func (s *Supervisor) WithProber(p Prober) *Supervisor {
	s.probe = p
	return s
}

// WithPreparation replaces the external preparation step. This method
// exists for unit testing only.
func (s *Supervisor) WithPreparation(fn func(context.Context) error) *Supervisor {
	s.prep = fn
	return s
}

// Invocation returns the id tagged onto logs and pid registry entries of
// this run.
func (s *Supervisor) Invocation() string {
	return s.invocation
}

// ensureInit runs the one-time initialization on the first launch of the
// invocation: the external preparation step, then runtime environment
// activation. It never runs twice.
func (s *Supervisor) ensureInit(ctx context.Context) error {
	if s.initialized {
		return nil
	}
	if err := s.prep(ctx); err != nil {
		return fmt.Errorf("preparation step failed: %w", err)
	}
	s.env = s.environ(ctx)
	s.initialized = true
	return nil
}

func (s *Supervisor) runSetup(ctx context.Context) error {
	if s.cfg.Setup == nil {
		slog.DebugContext(ctx, "no preparation step configured")
		return nil
	}
	slog.DebugContext(ctx, "running preparation step", "path", s.cfg.Setup.Path)
	cmd := exec.CommandContext(ctx, s.cfg.Setup.Path, s.cfg.Setup.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// environ computes the environment spawned services receive. Inside an
// isolated context (marker file present) activation is skipped and the
// launcher environment passes through unchanged.
func (s *Supervisor) environ(ctx context.Context) []string {
	if s.cfg.Runtime == nil {
		return os.Environ()
	}
	if marker := s.cfg.Runtime.Marker; marker != "" {
		if _, err := os.Stat(marker); err == nil {
			slog.DebugContext(ctx, "isolation marker present, skipping runtime activation", "marker", marker)
			return os.Environ()
		}
	}
	root := s.cfg.RuntimeRoot()
	if root == "" {
		return os.Environ()
	}

	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			kv = "PATH=" + filepath.Join(root, "bin") +
				string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
		}
		out = append(out, kv)
	}
	out = append(out, EnvRuntime+"="+root)
	slog.DebugContext(ctx, "runtime environment activated", "root", root)
	return out
}
