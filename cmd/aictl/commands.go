package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nanosoftsystem/ai/internal/log"
	"github.com/nanosoftsystem/ai/internal/resolver"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Start the whole assistant stack in the background",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sup.All(launchCtx(cmd))
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Start the whole stack, then attach the interactive text client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return propagate(sup.Debug(launchCtx(cmd)))
	},
}

// serviceCmds builds one subcommand per launchable service. Trailing
// arguments are passed through to the service executable.
func serviceCmds() []*cobra.Command {
	type svc struct {
		name       resolver.ServiceName
		short      string
		foreground bool
	}
	defs := []svc{
		{resolver.Bus, "Start the message bus service in the background", false},
		{resolver.Skills, "Start the skills runtime in the background", false},
		{resolver.Audio, "Start the audio playback service in the background", false},
		{resolver.Voice, "Start the speech capture service in the background", false},
		{resolver.Enclosure, "Start the enclosure driver in the background", false},
		{resolver.CLI, "Attach the interactive text client (foreground)", true},
		{resolver.AudioAccuracyTest, "Run the audio accuracy test harness (foreground)", true},
		{resolver.SDKDoc, "Generate the SDK documentation (foreground)", true},
	}

	cmds := make([]*cobra.Command, 0, len(defs))
	for _, d := range defs {
		cmds = append(cmds, &cobra.Command{
			Use:   string(d.name),
			Short: d.short,
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := launchCtx(cmd)
				if d.foreground {
					return propagate(sup.Foreground(ctx, d.name, args))
				}
				return sup.Background(ctx, d.name, args)
			},
		})
	}
	return cmds
}

// toolCmds builds the developer harness pass-throughs.
func toolCmds() []*cobra.Command {
	defs := []struct {
		name  string
		short string
	}{
		{"unittest", "Run the core unit test harness"},
		{"skillstest", "Run the skills test suite"},
		{"audiotest", "Run the audio test suite"},
	}

	cmds := make([]*cobra.Command, 0, len(defs))
	for _, d := range defs {
		cmds = append(cmds, &cobra.Command{
			Use:   d.name,
			Short: d.short,
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return propagate(sup.Tool(launchCtx(cmd), d.name, args))
			},
		})
	}
	return cmds
}

// launchCtx tags every record of this invocation with the command name,
// pid and invocation id.
func launchCtx(cmd *cobra.Command) context.Context {
	return log.WithInvocation(cmd.Context(), cmd.Name(), sup.Invocation())
}
