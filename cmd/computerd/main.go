// computerd exposes the remote execution primitives — shell commands,
// kernel code execution, and notebook documents — from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	computer "github.com/tailored-agentic-units/computer"
)

var (
	configFile string
	verbose    bool
	timeoutSec int

	runtime *computer.Computer
)

var rootCmd = &cobra.Command{
	Use:   "computerd",
	Short: "Remote execution primitives: shell, kernels, notebooks",
	Long: `computerd runs shell commands in a persistent interpreter session,
executes code on registered kernels, and manages notebook documents that
group cell executions against one kernel session.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	cfg := computer.DefaultConfig()
	if configFile != "" {
		loaded, err := computer.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	c, err := computer.New(&cfg)
	if err != nil {
		return err
	}
	runtime = c
	return nil
}

func timeout() time.Duration {
	return time.Duration(timeoutSec) * time.Second
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&timeoutSec, "timeout", "t", 0, "per-call timeout in seconds (0 uses config default)")

	rootCmd.AddCommand(shellCmd, execCmd, kernelsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
