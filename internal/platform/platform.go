// Package platform reads the externally managed enclosure platform
// configuration. The file is optional: a missing file or a parse failure
// means "no platform detected" and must never abort an orchestration.
package platform

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type config struct {
	Enclosure struct {
		Platform string `yaml:"platform"`
	} `yaml:"enclosure"`
}

// Detect returns the platform identifier recorded at path, if any.
func Detect(ctx context.Context, path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.DebugContext(ctx, "platform config unreadable", "path", path, "error", err)
		}
		return "", false
	}

	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.DebugContext(ctx, "platform config unparsable", "path", path, "error", err)
		return "", false
	}
	if cfg.Enclosure.Platform == "" {
		return "", false
	}
	return cfg.Enclosure.Platform, true
}
