// Command rollin-mcp serves the ROLLIN accessibility API as an MCP server.
//
// By default it speaks newline-delimited JSON-RPC on stdin/stdout, so it can
// be launched directly by an MCP client:
//
//	ROLLIN_API_KEY=... rollin-mcp
//
// With --transport http it listens on --port and requires ROLLIN_MCP_TOKEN.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}
