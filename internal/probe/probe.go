// Package probe answers whether an instance of a service is already
// running and stops one when asked. The primary mechanism is a pid
// registry written at spawn time, verified with a zero signal and a
// command line check against pid reuse. When no registry entry exists
// (e.g. a service spawned by an older launcher) it falls back to scanning
// the process table for the target path.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/renameio/v2"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/nanosoftsystem/ai/internal/resolver"
)

// Record is one registry entry, persisted as <run-dir>/<service>.pid.
type Record struct {
	Pid        int       `json:"pid"`
	Path       string    `json:"path"`
	Invocation string    `json:"invocation"`
	Started    time.Time `json:"started"`
}

// stop escalation: SIGTERM, then SIGKILL after the grace period.
const (
	stopGrace = 2 * time.Second
	stopPoll  = 100 * time.Millisecond
)

// Probe keeps the registry under one run directory.
type Probe struct {
	runDir string
}

func New(runDir string) *Probe {
	return &Probe{runDir: runDir}
}

// Record persists a registry entry for a freshly spawned service.
func (p *Probe) Record(name resolver.ServiceName, rec Record) error {
	if err := os.MkdirAll(p.runDir, 0o755); err != nil {
		return fmt.Errorf("creating run dir: %w", err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(p.pidFile(name), raw, 0o644); err != nil {
		return fmt.Errorf("recording pid for %s: %w", name, err)
	}
	return nil
}

// Forget drops the registry entry for a service. Missing entries are not
// an error.
func (p *Probe) Forget(name resolver.ServiceName) error {
	err := os.Remove(p.pidFile(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Running reports whether an instance of target is alive, and its pid
// when it is. The registry entry wins; a stale entry is removed and the
// process table scan decides.
func (p *Probe) Running(ctx context.Context, name resolver.ServiceName, target resolver.Target) (int, bool) {
	if rec, ok := p.lookup(name); ok {
		if alive(ctx, rec.Pid, rec.Path) {
			return rec.Pid, true
		}
		// pid gone or reused, drop the stale entry
		if err := p.Forget(name); err != nil {
			slog.DebugContext(ctx, "removing stale pid entry failed", "service", name, "error", err)
		}
	}
	return scan(ctx, target.Path)
}

// Stop terminates a running instance of target: SIGTERM first, SIGKILL
// after a grace period. Returns nil when nothing was running.
func (p *Probe) Stop(ctx context.Context, name resolver.ServiceName, target resolver.Target) error {
	pid, ok := p.Running(ctx, name, target)
	if !ok {
		return nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return p.Forget(name)
		}
		return fmt.Errorf("stopping %s (pid %d): %w", name, pid, err)
	}

	deadline := time.Now().Add(stopGrace)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, 0) != nil {
			return p.Forget(name)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stopPoll):
		}
	}

	slog.WarnContext(ctx, "service ignored SIGTERM, killing", "service", name, "pid", pid)
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("killing %s (pid %d): %w", name, pid, err)
	}
	return p.Forget(name)
}

func (p *Probe) pidFile(name resolver.ServiceName) string {
	return filepath.Join(p.runDir, string(name)+".pid")
}

func (p *Probe) lookup(name resolver.ServiceName) (Record, bool) {
	raw, err := os.ReadFile(p.pidFile(name))
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Pid <= 0 {
		return Record{}, false
	}
	return rec, true
}

// alive verifies pid exists and its command line still names path. The
// second check guards against pid reuse after a reboot or a long gap
// between invocations.
func alive(ctx context.Context, pid int, path string) bool {
	if syscall.Kill(pid, 0) != nil {
		return false
	}
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false
	}
	cmdline, err := proc.CmdlineWithContext(ctx)
	if err != nil {
		// signal 0 succeeded but the table refused us; trust the signal
		return true
	}
	return strings.Contains(cmdline, path)
}

// scan walks the process table looking for a command line containing
// path. Substring matching is a heuristic kept only as fallback for
// instances the registry does not know about.
func scan(ctx context.Context, path string) (int, bool) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		slog.DebugContext(ctx, "process table scan failed", "error", err)
		return 0, false
	}
	self := int32(os.Getpid())
	for _, proc := range procs {
		if proc.Pid == self {
			continue
		}
		cmdline, err := proc.CmdlineWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(cmdline, path) {
			return int(proc.Pid), true
		}
	}
	return 0, false
}
