// Package main implements the enforcerd daemon and CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag shared by all commands.
var configPath string

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the CLI and reports the failure on stderr. Cobra's own error
// printing is silenced, so this is the only place errors become visible;
// the check command's violation gate in particular must stay diagnosable
// from CI logs.
func run(args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "enforcerd",
	Short: "Code quality enforcement daemon",
	Long: `enforcerd runs a catalog of checking agents (type checking, documentation,
coverage, security scanning) against source files and reports violations.

It serves the MCP stdio transport for editor and agent integrations, an
optional HTTP API for CI jobs, and one-shot checks from the command line.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/enforcerd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("enforcerd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}
