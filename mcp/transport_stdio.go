package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
)

// StdioTransport provides stdio-based MCP server (reads from stdin, writes to stdout)
type StdioTransport struct {
	server         *Server
	logger         *slog.Logger
	jsonrpcHandler *JSONRPCHandler
	reader         io.Reader
	writer         io.Writer

	// writeMu serializes responses; handlers run concurrently
	writeMu sync.Mutex
}

// NewStdioTransport creates a stdio transport (no auth needed for local process)
func NewStdioTransport(server *Server, logger *slog.Logger) *StdioTransport {
	return NewStdioTransportWithIO(server, logger, os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a stdio transport with custom reader/writer (for testing)
func NewStdioTransportWithIO(server *Server, logger *slog.Logger, reader io.Reader, writer io.Writer) *StdioTransport {
	if logger == nil {
		logger = server.logger
	}
	return &StdioTransport{
		server:         server,
		logger:         logger,
		jsonrpcHandler: NewJSONRPCHandler(server),
		reader:         reader,
		writer:         writer,
	}
}

// Start reads newline-delimited JSON-RPC messages until the reader is exhausted
// or ctx is cancelled. Each message is handled on its own goroutine; Start
// returns only after in-flight handlers have written their responses.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.logger.Info("starting MCP stdio transport")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(t.reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max message size

	scanChan := make(chan []byte)
	errChan := make(chan error, 1)

	go func() {
		defer close(scanChan)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case scanChan <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errChan <- err
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("stdio transport shutting down")
			return nil

		case line, ok := <-scanChan:
			if !ok {
				select {
				case err := <-errChan:
					t.logger.Error("scanner error", "error", err)
					return err
				default:
					t.logger.Info("stdin closed, stopping stdio transport")
					return nil
				}
			}

			if len(line) == 0 {
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				t.handleLine(ctx, line)
			}()
		}
	}
}

func (t *StdioTransport) handleLine(ctx context.Context, line []byte) {
	resp, err := t.jsonrpcHandler.HandleMessage(ctx, line)
	if err != nil {
		t.logger.Error("error handling message", "error", err)
		return
	}

	// Notifications get no response
	if resp == nil {
		return
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		t.logger.Error("error marshaling response", "error", err)
		return
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.writer.Write(append(respBytes, '\n')); err != nil {
		t.logger.Error("error writing response", "error", err)
	}
}
