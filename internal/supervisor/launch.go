package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nanosoftsystem/ai/internal/probe"
	"github.com/nanosoftsystem/ai/internal/resolver"
)

// Foreground starts a service attached to the launcher's terminal and
// blocks until it exits. The returned code is the child's exit status
// (128+signal when the child died of a signal); the launcher propagates
// it as its own. A non-zero code is not an error, only resolution,
// initialization and spawn failures are.
func (s *Supervisor) Foreground(ctx context.Context, name resolver.ServiceName, params []string) (int, error) {
	if err := s.ensureInit(ctx); err != nil {
		return 0, err
	}
	target, err := s.table.Resolve(name)
	if err != nil {
		return 0, err
	}
	return s.foreground(ctx, target, params)
}

// Tool runs a developer harness (unittest, skillstest, audiotest) the
// same way as a foreground service.
func (s *Supervisor) Tool(ctx context.Context, tool string, params []string) (int, error) {
	if err := s.ensureInit(ctx); err != nil {
		return 0, err
	}
	target, err := s.table.ResolveTool(tool)
	if err != nil {
		return 0, err
	}
	return s.foreground(ctx, target, params)
}

func (s *Supervisor) foreground(ctx context.Context, target resolver.Target, params []string) (int, error) {
	cmd := exec.CommandContext(ctx, target.Path, argv(target, params)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = s.env

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("starting %s: %w", target.Path, err)
}

// Background starts a service detached from the terminal, with stdout
// and stderr appended to <log-dir>/<service>.log. A same-named running
// instance is stopped first and the launch is logged as a restart. The
// call does not block and does not track the child beyond a successful
// spawn.
func (s *Supervisor) Background(ctx context.Context, name resolver.ServiceName, params []string) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}
	target, err := s.table.Resolve(name)
	if err != nil {
		return err
	}

	if pid, ok := s.probe.Running(ctx, name, target); ok {
		slog.InfoContext(ctx, "restarting service", "service", name, "pid", pid)
		if err := s.probe.Stop(ctx, name, target); err != nil {
			// the restart proceeds regardless, see DESIGN.md
			slog.WarnContext(ctx, "stopping previous instance failed", "service", name, "error", err)
		}
	} else {
		slog.InfoContext(ctx, "starting service", "service", name)
	}

	if name == resolver.Bus {
		s.cautionBus(ctx)
	}

	return s.spawn(ctx, name, target, params)
}

// cautionBus warns once per invocation about the message bus endpoint.
func (s *Supervisor) cautionBus(ctx context.Context) {
	if s.busCautioned {
		return
	}
	s.busCautioned = true
	slog.WarnContext(ctx, "the message bus websocket is unauthenticated, do not expose its port beyond this machine")
}

func (s *Supervisor) spawn(ctx context.Context, name resolver.ServiceName, target resolver.Target, params []string) error {
	if err := os.MkdirAll(s.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	logPath := filepath.Join(s.cfg.LogDir, string(name)+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", logPath, err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	// plain exec.Command: the service must outlive this invocation, a
	// cancelled launcher context must not tear it down
	cmd := exec.Command(target.Path, argv(target, params)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = s.env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	rec := probe.Record{
		Pid:        pid,
		Path:       target.Path,
		Invocation: s.invocation,
		Started:    time.Now().UTC(),
	}
	if err := s.probe.Record(name, rec); err != nil {
		slog.WarnContext(ctx, "recording pid failed", "service", name, "error", err)
	}
	if err := cmd.Process.Release(); err != nil {
		slog.DebugContext(ctx, "releasing process handle failed", "service", name, "error", err)
	}

	slog.InfoContext(ctx, "service started", "service", name, "pid", pid, "log", logPath)
	return nil
}

func argv(target resolver.Target, params []string) []string {
	args := make([]string, 0, len(target.Args)+len(params))
	args = append(args, target.Args...)
	return append(args, params...)
}
