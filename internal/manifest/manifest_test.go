package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanosoftsystem/ai/internal/manifest"
)

func writeDep(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGateFresh(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	deps := []string{
		writeDep(t, dir, "dependencies.lock", "alpha==1.0\n"),
		writeDep(t, dir, "extra.lock", "beta==2.0\n"),
	}
	manifestPath := filepath.Join(dir, "deps.sha256")
	require.NoError(t, manifest.Write(t.Context(), manifestPath, deps))

	gate := manifest.New(manifestPath, deps).WithNotifier(nil)
	require.NoError(t, gate.Check(t.Context()))
}

func TestGateMissingManifest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dep := writeDep(t, dir, "dependencies.lock", "alpha==1.0\n")

	gate := manifest.New(filepath.Join(dir, "deps.sha256"), []string{dep}).WithNotifier(nil)
	err := gate.Check(t.Context())
	require.ErrorIs(t, err, manifest.ErrMissing)
}

func TestGateStale(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dep := writeDep(t, dir, "dependencies.lock", "alpha==1.0\n")
	manifestPath := filepath.Join(dir, "deps.sha256")
	require.NoError(t, manifest.Write(t.Context(), manifestPath, []string{dep}))

	// dependency file changes after the manifest was recorded
	require.NoError(t, os.WriteFile(dep, []byte("alpha==1.1\n"), 0o644))

	gate := manifest.New(manifestPath, []string{dep}).WithNotifier(nil)
	err := gate.Check(t.Context())
	require.ErrorIs(t, err, manifest.ErrStale)
	require.ErrorContains(t, err, dep)
}

func TestGateTrackedFileRemoved(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dep := writeDep(t, dir, "dependencies.lock", "alpha==1.0\n")
	manifestPath := filepath.Join(dir, "deps.sha256")
	require.NoError(t, manifest.Write(t.Context(), manifestPath, []string{dep}))
	require.NoError(t, os.Remove(dep))

	gate := manifest.New(manifestPath, []string{dep}).WithNotifier(nil)
	require.ErrorIs(t, gate.Check(t.Context()), manifest.ErrStale)
}

func TestGateMalformedManifest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dep := writeDep(t, dir, "dependencies.lock", "alpha==1.0\n")
	manifestPath := writeDep(t, dir, "deps.sha256", "not a checksum line\n")

	gate := manifest.New(manifestPath, []string{dep}).WithNotifier(nil)
	require.ErrorIs(t, gate.Check(t.Context()), manifest.ErrStale)
}

func TestGateNotifier(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dep := writeDep(t, dir, "dependencies.lock", "alpha==1.0\n")

	t.Run("raised on stale", func(t *testing.T) {
		notified := 0
		gate := manifest.New(filepath.Join(dir, "missing.sha256"), []string{dep}).
			WithNotifier(func() error { notified++; return nil })
		require.Error(t, gate.Check(t.Context()))
		require.Equal(t, 1, notified)
	})

	t.Run("failure does not change outcome", func(t *testing.T) {
		gate := manifest.New(filepath.Join(dir, "missing.sha256"), []string{dep}).
			WithNotifier(func() error { return errors.New("no notification daemon") })
		require.ErrorIs(t, gate.Check(t.Context()), manifest.ErrMissing)
	})

	t.Run("not raised when fresh", func(t *testing.T) {
		manifestPath := filepath.Join(dir, "deps.sha256")
		require.NoError(t, manifest.Write(t.Context(), manifestPath, []string{dep}))
		notified := 0
		gate := manifest.New(manifestPath, []string{dep}).
			WithNotifier(func() error { notified++; return nil })
		require.NoError(t, gate.Check(t.Context()))
		require.Zero(t, notified)
	})
}

func TestSums(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeDep(t, dir, "a", "one")
	b := writeDep(t, dir, "b", "two")

	sums, err := manifest.Sums(t.Context(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, sums, 2)
	// sha256("one")
	require.Equal(t,
		"7692c3ad3540bb803c020b3aee66cd8887123234ea0c6e7143c0add73ff431ed",
		sums[a])
}
