package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nanosoftsystem/ai/internal/log"
	"github.com/nanosoftsystem/ai/internal/manifest"
	"github.com/nanosoftsystem/ai/internal/model"
	"github.com/nanosoftsystem/ai/internal/supervisor"
)

var (
	userConfigPath string // /default/config/path/aictl on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	sup            *supervisor.Supervisor

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "aictl")
}

var buildOnce sync.Once

// buildCLI wires flags and subcommands onto rootCmd. Split out of main so
// tests can execute the assembled command tree.
func buildCLI() {
	buildOnce.Do(func() {
		rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is aictl.yaml in current directory or in "+userConfigPath)
		rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

		// never print messages
		rootCmd.SilenceErrors = true

		// parse or create a config, setup logging, verify dependencies
		rootCmd.PersistentPreRunE = initLauncher

		rootCmd.AddCommand(allCmd)
		rootCmd.AddCommand(debugCmd)
		for _, c := range serviceCmds() {
			rootCmd.AddCommand(c)
		}
		for _, c := range toolCmds() {
			rootCmd.AddCommand(c)
		}
		rootCmd.AddCommand(versionCmd)
	})
}

func main() {
	buildCLI()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(rootCmd, err))
	}
}

// exitCode converts an Execute error into the process exit status. An
// unrecognized command prints the usage text; a child's exit status
// passes through untouched.
func exitCode(cmd *cobra.Command, err error) int {
	var status exitStatusError
	if errors.As(err, &status) {
		return status.code
	}
	// cobra has no typed error for unrecognized commands
	if strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(cmd.ErrOrStderr(), "aictl:", err)
		_ = cmd.Usage()
		return 1
	}
	slog.Error("aictl failed", "err", err)
	return 1
}

var rootCmd = &cobra.Command{
	Use:          "aictl",
	Short:        "Launcher and supervisor for the local assistant service stack",
	SilenceUsage: true,
	// a bare `aictl` is a usage error, not a success
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = cmd.Help()
		return exitStatusError{code: 1}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides version of aictl",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info, ok)
	},
}

func printVersion(w io.Writer, info *debug.BuildInfo, ok bool) {
	if !ok {
		fmt.Fprintln(w, "aictl: version info not available")
		return
	}

	if configPath != "" {
		fmt.Fprintf(w, "config: %s\n", configPath)
	}
	fmt.Fprintf(w, "aictl: %s\n", info.Main.Version)
	fmt.Fprintf(w, "go:    %s\n", info.GoVersion)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(w, "commit: %s\n", s.Value)
		case "vcs.time":
			fmt.Fprintf(w, "date:   %s\n", s.Value)
		case "vcs.modified":
			fmt.Fprintf(w, "dirty:  %s\n", s.Value)
		}
	}
	fmt.Fprintln(w)
}

// exitStatusError carries a child's exit status to os.Exit without
// being reported as a launcher failure.
type exitStatusError struct {
	code int
}

func (e exitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// propagate converts a foreground result into the command outcome: spawn
// errors stay errors, a non-zero child status becomes the launcher's own.
func propagate(code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		return exitStatusError{code: code}
	}
	return nil
}

func initLauncher(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("AICTL_CONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else {
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, "aictl.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	// store default configuration
	if configPath == "" {
		config = model.DefaultConfig()
		configPath = filepath.Join(userConfigPath, "aictl.yaml")
		err := os.MkdirAll(filepath.Dir(configPath), 0755)
		if err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Dir(configPath), err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("creating file %s: %w", configPath, err)
		}
		defer func() {
			_ = f.Close()
		}()
		enc := yaml.NewEncoder(f)
		err = enc.Encode(config)
		if err != nil {
			return fmt.Errorf("storing configuration: %w", err)
		}
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Verbose = &flagVerbose
	}

	slog.SetDefault(log.New(config.IsVerbose()))
	slog.Debug("aictl run", "configPath", configPath)

	// dependency gate: refuse every command while the installed
	// dependencies do not match the recorded manifest
	gate := manifest.New(config.Deps.Manifest, config.Deps.Files)
	if err := gate.Check(cmd.Context()); err != nil {
		setup := "the setup step"
		if config.Setup != nil {
			setup = config.Setup.Path
		}
		return fmt.Errorf("%w; re-run %s and try again", err, setup)
	}

	sup = supervisor.New(config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
