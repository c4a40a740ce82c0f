package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanosoftsystem/ai/internal/model"
)

const configYAML = `
version: 0
bin_dir: /opt/assistant/bin
log_dir: /var/log/assistant
run_dir: /run/assistant
setup:
  path: /opt/assistant/libexec/prepare-runtime
runtime:
  root: /opt/assistant/runtime
  marker: /.dockerenv
deps:
  manifest: /var/lib/assistant/deps.sha256
  files:
    - /opt/assistant/share/dependencies.lock
platform: /etc/nanosoft/assistant.yaml
`

func TestLoadConfig(t *testing.T) {
	cfg, err := model.LoadConfig(strings.NewReader(configYAML))
	require.NoError(t, err)
	require.Equal(t, "/opt/assistant/bin", cfg.BinDir)
	require.Equal(t, "/opt/assistant/libexec/prepare-runtime", cfg.Setup.Path)
	require.Equal(t, []string{"/opt/assistant/share/dependencies.lock"}, cfg.Deps.Files)
	require.False(t, cfg.IsVerbose())
}

func TestLoadConfigUnknownField(t *testing.T) {
	_, err := model.LoadConfig(strings.NewReader("version: 0\nbogus: true\n"))
	require.Error(t, err)
}

func TestLoadConfigVersion(t *testing.T) {
	_, err := model.LoadConfig(strings.NewReader("version: 7\n"))
	require.Error(t, err)
	require.ErrorContains(t, err, "version 7")
}

func TestRuntimeRoot(t *testing.T) {
	cfg, err := model.LoadConfig(strings.NewReader(configYAML))
	require.NoError(t, err)
	require.Equal(t, "/opt/assistant/runtime", cfg.RuntimeRoot())

	t.Setenv(model.EnvRuntimeRoot, "/elsewhere/runtime")
	require.Equal(t, "/elsewhere/runtime", cfg.RuntimeRoot())
}

func TestDefaultConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	require.Zero(t, cfg.Version)
	require.NotEmpty(t, cfg.BinDir)
	require.NotEmpty(t, cfg.LogDir)
	require.NotEmpty(t, cfg.RunDir)
	require.NotEmpty(t, cfg.Deps.Manifest)
}
