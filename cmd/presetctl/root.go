// Command presetctl inspects and converts FXP/FXB/VST3-chunk preset
// files over pkg/preset, without needing a loaded plugin backend — a
// development tool in the same spirit as the host's own test utilities.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rivermist/vsthost/pkg/hostlog"
)

// Config holds the flags shared by every subcommand.
type Config struct {
	LogLevel string
}

func buildRootCmd() *cobra.Command {
	return buildRootCmdWith(&Config{LogLevel: "info"})
}

func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "presetctl",
		Short:         "Inspect and convert FXP/FXB/VST3-chunk preset files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setLogLevel(cfg.LogLevel)
	}

	root.AddCommand(
		newDumpCmd(),
		newEncodeCmd(),
	)
	return root
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	hostlog.SetLevel(lvl)
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "presetctl:", err)
		os.Exit(1)
	}
}
