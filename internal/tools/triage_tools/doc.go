// Package triage_tools exposes the unread-email triage pipeline as an
// MCP tool. One invocation runs a full pass: list unread, decode, mark
// read, classify through the local model and apply the resulting label.
package triage_tools
