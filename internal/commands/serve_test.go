package commands

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dingtalk/internal/config"
	"dingtalk/internal/robot"
)

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	b, _ := generateToken()
	if len(a) != 32 || a == b {
		t.Fatalf("tokens %q and %q: want distinct 32-char hex", a, b)
	}
}

func TestNewRelay_GeneratesToken(t *testing.T) {
	setup(t)
	_, tokens, err := newRelay(serveOptions{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("newRelay: %v", err)
	}
	if len(tokens) != 1 || len(tokens[0]) != 32 {
		t.Fatalf("tokens = %v", tokens)
	}
}

func TestNewRelay_SendsThroughProfile(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	config.AddRobot(config.RobotProfile{Name: "ops", Record: robot.Record{DirectURL: srv.URL}})

	relay, _, err := newRelay(serveOptions{Addr: "127.0.0.1:0", Tokens: []string{"secret"}})
	if err != nil {
		t.Fatalf("newRelay: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/send/ops", strings.NewReader(`{"msgtype":"text","content":"via relay"}`))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	relay.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if wh.last(t)["text"].(map[string]any)["content"] != "via relay" {
		t.Fatalf("unexpected body: %v", wh.last(t))
	}

	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	relay.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("mcp without token: status = %d, want 401", w.Code)
	}
}
