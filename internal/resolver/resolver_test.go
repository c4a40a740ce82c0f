package resolver_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanosoftsystem/ai/internal/resolver"
)

func TestResolveKnownNames(t *testing.T) {
	t.Parallel()
	table := resolver.New("/opt/assistant/bin")

	for _, name := range resolver.Known() {
		t.Run(string(name), func(t *testing.T) {
			target, err := table.Resolve(name)
			require.NoError(t, err)
			require.NotEmpty(t, target.Path)
			require.True(t, filepath.IsAbs(target.Path))
			require.Equal(t, "/opt/assistant/bin", filepath.Dir(target.Path))
		})
	}
}

func TestResolveUnknownName(t *testing.T) {
	t.Parallel()
	table := resolver.New("/opt/assistant/bin")

	for _, name := range []string{"nonsense", "", "bus2", "BUS"} {
		target, err := table.Resolve(resolver.ServiceName(name))
		require.Error(t, err)
		require.ErrorIs(t, err, resolver.ErrUnknownName)
		require.ErrorContains(t, err, name)
		require.Zero(t, target, "no partial target on error")
	}
}

func TestResolveImplicitArgs(t *testing.T) {
	t.Parallel()
	table := resolver.New("/x")

	target, err := table.Resolve(resolver.AudioAccuracyTest)
	require.NoError(t, err)
	require.Equal(t, "/x/assistant-voice", target.Path)
	require.Equal(t, []string{"--accuracy-test"}, target.Args)

	target, err = table.Resolve(resolver.SDKDoc)
	require.NoError(t, err)
	require.Equal(t, "/x/assistant-sdk", target.Path)
	require.Equal(t, []string{"docs"}, target.Args)

	// plain services carry no implicit args
	target, err = table.Resolve(resolver.Bus)
	require.NoError(t, err)
	require.Empty(t, target.Args)
}

func TestResolveTool(t *testing.T) {
	t.Parallel()
	table := resolver.New("/x")

	target, err := table.ResolveTool("skillstest")
	require.NoError(t, err)
	require.Equal(t, "/x/assistant-test", target.Path)
	require.Equal(t, []string{"--suite", "skills"}, target.Args)

	_, err = table.ResolveTool("bus")
	require.ErrorIs(t, err, resolver.ErrUnknownName)
}

func TestResolveIsPure(t *testing.T) {
	t.Parallel()
	table := resolver.New("/x")

	first, err := table.Resolve(resolver.SDKDoc)
	require.NoError(t, err)
	first.Args[0] = "mutated"

	second, err := table.Resolve(resolver.SDKDoc)
	require.NoError(t, err)
	require.Equal(t, []string{"docs"}, second.Args)
}
