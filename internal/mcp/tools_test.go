package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"dingtalk/internal/config"
	"dingtalk/internal/robot"
)

// setupTestServer creates an MCP server+client pair connected via in-memory
// transport. Robots resolve to the given test webhook.
func setupTestServer(t *testing.T, webhook string) *mcpsdk.ClientSession {
	t.Helper()

	resolve := func(name string) (*robot.Client, string, error) {
		if name == "missing" {
			return nil, "", config.ErrNotFound
		}
		if name == "" {
			name = "default"
		}
		return robot.New("tok", "").WithWebhookURL(webhook), name, nil
	}
	server := NewServer("0.0.1", resolve)

	ct, st := mcpsdk.NewInMemoryTransports()

	ctx := context.Background()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		cs.Close()
		ss.Close()
	})
	return cs
}

func callToolRaw(t *testing.T, cs *mcpsdk.ClientSession, name string, args any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

// callTool calls a tool and returns the unmarshaled JSON content from the
// first TextContent block.
func callTool(t *testing.T, cs *mcpsdk.ClientSession, name string, args any) map[string]any {
	t.Helper()
	result := callToolRaw(t, cs, name, args)
	if result.IsError {
		t.Fatalf("CallTool(%s): tool error: %+v", name, result.Content)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is %T, want *TextContent", name, result.Content[0])
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &m); err != nil {
		t.Fatalf("CallTool(%s): unmarshal response: %v\nraw: %s", name, err, tc.Text)
	}
	return m
}

func newWebhook(t *testing.T) (string, <-chan map[string]any) {
	t.Helper()
	ch := make(chan map[string]any, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(data, &body)
		ch <- body
	}))
	t.Cleanup(srv.Close)
	return srv.URL, ch
}

func TestSendTextTool(t *testing.T) {
	url, ch := newWebhook(t)
	cs := setupTestServer(t, url)

	got := callTool(t, cs, "send_text", map[string]any{
		"content":    "hello",
		"at_mobiles": []string{"138"},
	})
	want := map[string]any{"sent": true, "robot": "default", "msgtype": "text"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	body := <-ch
	wantBody := map[string]any{
		"msgtype": "text",
		"text":    map[string]any{"content": "hello"},
		"at":      map[string]any{"atMobiles": []any{"138"}, "isAtAll": false},
	}
	if diff := cmp.Diff(wantBody, body); diff != "" {
		t.Fatalf("webhook body mismatch (-want +got):\n%s", diff)
	}
}

func TestSendMarkdownTool(t *testing.T) {
	url, ch := newWebhook(t)
	cs := setupTestServer(t, url)

	got := callTool(t, cs, "send_markdown", map[string]any{"robot": "ops", "title": "T", "text": "# hi"})
	if got["robot"] != "ops" || got["msgtype"] != "markdown" {
		t.Fatalf("unexpected output: %v", got)
	}
	body := <-ch
	if diff := cmp.Diff(map[string]any{"title": "T", "text": "# hi"}, body["markdown"]); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestSendActionCardTool(t *testing.T) {
	url, ch := newWebhook(t)
	cs := setupTestServer(t, url)

	callTool(t, cs, "send_action_card", map[string]any{
		"title":     "Release",
		"text":      "v2",
		"buttons":   []map[string]string{{"title": "Notes", "url": "https://n"}, {"title": "Diff", "url": "https://d"}},
		"landscape": true,
	})
	card := (<-ch)["actionCard"].(map[string]any)
	if card["btnOrientation"] != "1" {
		t.Fatalf("btnOrientation = %v", card["btnOrientation"])
	}
	if btns := card["btns"].([]any); len(btns) != 2 {
		t.Fatalf("expected 2 buttons, got %v", btns)
	}
}

func TestSendTools_MissingFields(t *testing.T) {
	url, _ := newWebhook(t)
	cs := setupTestServer(t, url)

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"send_text", map[string]any{}},
		{"send_markdown", map[string]any{"title": "only title"}},
		{"send_link", map[string]any{"title": "only title"}},
		{"send_action_card", map[string]any{"text": "only text"}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result := callToolRaw(t, cs, tt.tool, tt.args)
			if !result.IsError {
				t.Fatalf("%s(%v): expected tool error", tt.tool, tt.args)
			}
		})
	}
}

func TestSendLinkTool_WithoutText(t *testing.T) {
	url, ch := newWebhook(t)
	cs := setupTestServer(t, url)

	callTool(t, cs, "send_link", map[string]any{"title": "Docs", "message_url": "https://docs"})
	link := (<-ch)["link"].(map[string]any)
	if link["title"] != "Docs" || link["messageUrl"] != "https://docs" {
		t.Fatalf("link = %v", link)
	}
}

func TestSendTool_UnknownRobot(t *testing.T) {
	url, _ := newWebhook(t)
	cs := setupTestServer(t, url)

	result := callToolRaw(t, cs, "send_text", map[string]any{"robot": "missing", "content": "x"})
	if !result.IsError {
		t.Fatal("expected tool error for unknown robot")
	}
}

func TestListRobotsTool(t *testing.T) {
	origPath := config.ConfigPath
	config.ConfigPath = filepath.Join(t.TempDir(), "config.json")
	t.Cleanup(func() { config.ConfigPath = origPath })

	config.AddRobot(config.RobotProfile{Name: "ops", Record: robot.Record{AccessToken: "abcdefgh", SecToken: "s"}})
	config.AddRobot(config.RobotProfile{Name: "wx", Record: robot.Record{Type: "wecom", AccessToken: "k"}})

	cs := setupTestServer(t, "http://unused")
	got := callTool(t, cs, "list_robots", map[string]any{})

	want := map[string]any{"robots": []any{
		map[string]any{"name": "ops", "provider": "dingtalk", "access_token": "****efgh", "signed": true, "default": true},
		map[string]any{"name": "wx", "provider": "wechatwork", "access_token": "*", "signed": false, "default": false},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigResolver(t *testing.T) {
	origPath := config.ConfigPath
	config.ConfigPath = filepath.Join(t.TempDir(), "config.json")
	t.Cleanup(func() { config.ConfigPath = origPath })

	_, _, err := ConfigResolver()("nope")
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
