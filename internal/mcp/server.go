package mcpserver

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"dingtalk/internal/config"
	"dingtalk/internal/robot"
)

// Resolver returns the client for a robot profile name. An empty name
// selects the default robot.
type Resolver func(name string) (*robot.Client, string, error)

// ConfigResolver resolves robots from the profile store and environment.
func ConfigResolver(opts ...robot.Option) Resolver {
	return func(name string) (*robot.Client, string, error) {
		return config.Resolve(config.Source{Robot: name}, opts...)
	}
}

// NewServer creates an MCP server exposing the robot tools.
func NewServer(version string, resolve Resolver) *mcpsdk.Server {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "dingtalk",
			Version: version,
		},
		nil,
	)

	t := &tools{resolve: resolve}

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "send_text",
		Description: "Send a plain text message through a DingTalk or WeChat Work robot",
	}, t.sendText)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "send_markdown",
		Description: "Send a markdown message with a title through a robot",
	}, t.sendMarkdown)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "send_link",
		Description: "Send a link card with title, text, optional picture and target URL",
	}, t.sendLink)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "send_action_card",
		Description: "Send an action card with either one button or a list of buttons",
	}, t.sendActionCard)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_robots",
		Description: "List configured robot profiles with masked credentials",
	}, listRobotsHandler)

	return server
}

// RunServer starts the MCP server over stdio transport.
func RunServer(ctx context.Context, version string, opts ...robot.Option) error {
	return NewServer(version, ConfigResolver(opts...)).Run(ctx, &mcpsdk.StdioTransport{})
}

// NewHTTPHandler serves the same tools over the streamable HTTP transport.
func NewHTTPHandler(version string, resolve Resolver) http.Handler {
	server := NewServer(version, resolve)
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil)
}
