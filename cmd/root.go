package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gmail-mcp-server application
var rootCmd = &cobra.Command{
	Use:   "gmail-mcp-server",
	Short: "Gmail MCP server with local-model email triage",
	Long: `gmail-mcp-server exposes a Gmail mailbox to AI assistants over the
Model Context Protocol: sending, reading, trashing and labeling emails,
plus a triage workflow that classifies unread inbox messages with a
local Ollama model and labels them accordingly.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A one-shot triage run over the unread inbox (triage subcommand)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmail-mcp-server version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
