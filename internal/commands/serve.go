package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"dingtalk/internal/httpserver"
	mcpserver "dingtalk/internal/mcp"
	"dingtalk/internal/ui"
)

type serveOptions struct {
	Addr   string
	Tokens []string
}

// generateToken returns a random 128-bit hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newRelay builds the relay server, generating an auth token when none is
// given.
func newRelay(opts serveOptions) (*httpserver.HTTPServer, []string, error) {
	tokens := opts.Tokens
	if len(tokens) == 0 {
		token, err := generateToken()
		if err != nil {
			return nil, nil, err
		}
		tokens = []string{token}
		ui.ShowInfo("Generated auth token: %s", token)
	}

	resolve := mcpserver.ConfigResolver(clientOptions()...)
	server, err := httpserver.NewHTTPServer(httpserver.Options{
		Tokens:   tokens,
		Version:  Version,
		Resolve:  httpserver.Resolver(resolve),
		Recorder: recorder,
	})
	if err != nil {
		return nil, nil, err
	}
	server.Handle("/mcp", mcpserver.NewHTTPHandler(Version, resolve))
	return server, tokens, nil
}

// RunServe runs the HTTP relay until ctx is done.
func RunServe(ctx context.Context, opts serveOptions) error {
	server, _, err := newRelay(opts)
	if err != nil {
		return err
	}
	sched, err := startScheduler(ctx)
	if err != nil {
		return err
	}
	defer sched.Stop()

	ui.ShowInfo("Relay listening on %s", opts.Addr)
	return server.ListenAndServe(ctx, opts.Addr)
}
