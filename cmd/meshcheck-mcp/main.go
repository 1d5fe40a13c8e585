// Package main provides the meshcheck-mcp binary, an MCP server for AI agents.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mmcp "github.com/ormasoftchile/meshcheck/pkg/ecosystem/mcp"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
)

var version = "dev"

func main() {
	// stdout carries the protocol; logs stay on stderr.
	logger.SetLogOutput(os.Stderr)
	s := mmcp.NewServer(version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
