// Package manifest implements the dependency freshness gate. An external
// setup step records a checksum manifest of the dependency files it
// installed from. Before any launch the gate recomputes the checksums and
// refuses to proceed when the manifest is missing or no longer matches.
package manifest

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrMissing indicates no manifest was found, the setup step never ran.
	ErrMissing = errors.New("dependency manifest missing")

	// ErrStale indicates the tracked dependency files changed since the
	// setup step last ran.
	ErrStale = errors.New("dependencies changed since last setup")
)

// checksum workers; the tracked file set is small, this only bounds
// pathological configs.
const recomputeLimit = 4

// Gate checks a persisted checksum manifest against the current
// dependency files.
type Gate struct {
	path   string
	files  []string
	notify func() error
}

// New returns a Gate reading the manifest at path and tracking files.
func New(path string, files []string) *Gate {
	return &Gate{
		path:   path,
		files:  append([]string(nil), files...),
		notify: notifyStale,
	}
}

// WithNotifier replaces the desktop notifier. This method exists for unit
// testing only.
func (g *Gate) WithNotifier(fn func() error) *Gate {
	g.notify = fn
	return g
}

// Check recomputes checksums over the tracked dependency files and
// compares them with the recorded ones. It returns nil when everything
// matches, ErrMissing when no manifest exists and ErrStale on any
// mismatch. A stale result raises a best-effort desktop notification,
// notification failures never influence the outcome.
func (g *Gate) Check(ctx context.Context) error {
	recorded, err := g.load()
	if err != nil {
		g.raise(ctx, err)
		return err
	}

	current, err := Sums(ctx, g.files)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStale, err)
		g.raise(ctx, err)
		return err
	}

	for _, path := range g.files {
		want, ok := recorded[path]
		if !ok || want != current[path] {
			err := fmt.Errorf("%w: %s", ErrStale, path)
			g.raise(ctx, err)
			return err
		}
	}
	return nil
}

func (g *Gate) raise(ctx context.Context, reason error) {
	if g.notify == nil {
		return
	}
	if err := g.notify(); err != nil {
		slog.DebugContext(ctx, "desktop notification failed", "error", err)
	}
	slog.DebugContext(ctx, "dependency gate failed", "reason", reason)
}

// load reads the manifest file: one `<hex sum>  <path>` line per tracked
// file, the format sha256sum writes.
func (g *Gate) load() (map[string]string, error) {
	f, err := os.Open(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, g.path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", g.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	recorded := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sum, path, ok := strings.Cut(line, "  ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed line %q", ErrStale, line)
		}
		recorded[path] = sum
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", g.path, err)
	}
	return recorded, nil
}

// Sums computes sha256 checksums of the given files in parallel and
// returns them keyed by path.
func Sums(ctx context.Context, files []string) (map[string]string, error) {
	sums := make(map[string]string, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeLimit)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := fileSum(path)
			if err != nil {
				return err
			}
			mu.Lock()
			sums[path] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sums, nil
}

// Write records the current checksums of files into a manifest at path.
// The launcher never calls this on its own, it belongs to the setup step
// and to tests.
func Write(ctx context.Context, path string, files []string) error {
	sums, err := Sums(ctx, files)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(sums))
	for p := range sums {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "%s  %s\n", sums[p], p)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func fileSum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
