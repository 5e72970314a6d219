// Package cmd implements the command-line interface for gmail-mcp-server.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide mailbox and triage tools for AI assistants
//   - triage: Run one triage pass over the unread inbox and print outcomes as JSON
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
