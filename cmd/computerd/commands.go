package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell <command>",
	Short: "Run a command in the persistent shell session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer runtime.Shutdown()

		result, err := runtime.RunShellCommand(cmd.Context(), strings.Join(args, " "), timeout())
		if err != nil {
			return err
		}

		if result.Output != "" {
			fmt.Println(result.Output)
		}
		if result.Error != "" {
			fmt.Fprintln(os.Stderr, result.Error)
		}
		if result.MustRestart {
			fmt.Fprintln(os.Stderr, "shell session exited; restart required")
		}
		if result.ExitCode != 0 {
			os.Exit(result.ExitCode)
		}
		return nil
	},
}

var execKind string

var execCmd = &cobra.Command{
	Use:   "exec <code>",
	Short: "Execute code on a disposable kernel session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer runtime.Shutdown()

		result, err := runtime.RunKernelCode(cmd.Context(), args[0], execKind, timeout())
		if err != nil {
			return err
		}

		for _, out := range result.Outputs {
			if out.Text != "" {
				fmt.Print(out.Text)
				continue
			}
			if text, ok := out.Data["text/plain"]; ok {
				fmt.Println(text)
			}
		}
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", result.Error.Kind, result.Error.Message)
			for _, frame := range result.Error.Trace {
				fmt.Fprintln(os.Stderr, frame)
			}
			os.Exit(1)
		}
		return nil
	},
}

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List registered kernel kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := runtime.Kernels().List()
		if len(specs) == 0 {
			fmt.Println("no kernel kinds registered; declare them under kernel.kinds in the config file")
			return nil
		}
		for _, spec := range specs {
			fmt.Printf("%-16s %s (%s)\n", spec.Name, spec.DisplayName, spec.Language)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execKind, "kind", "k", "", "kernel kind to execute on (required)")
	execCmd.MarkFlagRequired("kind")
}
