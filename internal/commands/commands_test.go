package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dingtalk/internal/config"
	"dingtalk/internal/message"
	"dingtalk/internal/output"
	"dingtalk/internal/robot"
)

// webhook records every request body it receives.
type webhook struct {
	mu     sync.Mutex
	bodies []map[string]any
	status int
}

func newWebhook(t *testing.T) (*webhook, *httptest.Server) {
	t.Helper()
	wh := &webhook{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(data, &body)
		wh.mu.Lock()
		wh.bodies = append(wh.bodies, body)
		status := wh.status
		wh.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return wh, srv
}

func (w *webhook) last(t *testing.T) map[string]any {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.bodies) == 0 {
		t.Fatal("webhook received nothing")
	}
	return w.bodies[len(w.bodies)-1]
}

// setup isolates global state: flags, profile store, stdin and output.
func setup(t *testing.T) *bytes.Buffer {
	t.Helper()

	origGlobal, origMentions := Global, mentions
	origStdin, origTerminal := stdin, stdinIsTerminal
	origPath := config.ConfigPath
	origOut, origMode := output.Stdout, output.JSONMode

	var out bytes.Buffer
	Global = GlobalFlags{}
	mentions = mentionFlags{}
	stdinIsTerminal = func() bool { return true }
	config.ConfigPath = filepath.Join(t.TempDir(), "config.json")
	output.Stdout = &out
	output.JSONMode = true
	t.Setenv(config.EnvToken, "")
	t.Setenv("HOME", t.TempDir())

	t.Cleanup(func() {
		Global, mentions = origGlobal, origMentions
		stdin, stdinIsTerminal = origStdin, origTerminal
		config.ConfigPath = origPath
		output.Stdout, output.JSONMode = origOut, origMode
	})
	return &out
}

func decodeResult(t *testing.T, out *bytes.Buffer) map[string]any {
	t.Helper()
	var res output.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if !res.Success {
		t.Fatalf("unsuccessful result: %s", out)
	}
	data, _ := res.Data.(map[string]any)
	return data
}

func TestRunSendText(t *testing.T) {
	out := setup(t)
	wh, srv := newWebhook(t)
	Global.URL = srv.URL
	mentions = mentionFlags{AtAll: true}

	if err := RunSendText(context.Background(), "hello"); err != nil {
		t.Fatalf("RunSendText: %v", err)
	}

	want := map[string]any{
		"msgtype": "text",
		"text":    map[string]any{"content": "hello"},
		"at":      map[string]any{"atMobiles": []any{}, "isAtAll": true},
	}
	if diff := cmp.Diff(want, wh.last(t)); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"robot": "url", "msgtype": "text"}, decodeResult(t, out)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSendText_Stdin(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	Global.URL = srv.URL
	stdinIsTerminal = func() bool { return false }
	stdin = strings.NewReader("from a pipe\n")

	if err := RunSendText(context.Background(), ""); err != nil {
		t.Fatalf("RunSendText: %v", err)
	}
	if got := wh.last(t)["text"].(map[string]any)["content"]; got != "from a pipe" {
		t.Fatalf("content = %q", got)
	}
}

func TestRunSendText_NoInput(t *testing.T) {
	setup(t)
	if err := RunSendText(context.Background(), ""); !errors.Is(err, errNoInput) {
		t.Fatalf("err = %v, want errNoInput", err)
	}

	stdinIsTerminal = func() bool { return false }
	stdin = strings.NewReader("\n")
	if err := RunSendText(context.Background(), ""); !errors.Is(err, errNoInput) {
		t.Fatalf("empty stdin err = %v, want errNoInput", err)
	}
}

func TestRunSendText_DeliveryError(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	wh.status = http.StatusForbidden
	Global.URL = srv.URL

	err := RunSendText(context.Background(), "x")
	if !errors.Is(err, robot.ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
}

func TestRunSendText_NoRobot(t *testing.T) {
	setup(t)
	if err := RunSendText(context.Background(), "x"); !errors.Is(err, config.ErrNoRobot) {
		t.Fatalf("err = %v, want ErrNoRobot", err)
	}
}

func TestRunSendActionCard(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	Global.URL = srv.URL

	err := RunSendActionCard(context.Background(), "Release", "v2 is out", actionCardOptions{
		Buttons:    []string{"Notes=https://n?a=1", "Diff = https://d"},
		HideAvatar: true,
		Landscape:  true,
	})
	if err != nil {
		t.Fatalf("RunSendActionCard: %v", err)
	}

	want := map[string]any{
		"title":          "Release",
		"text":           "v2 is out",
		"hideAvatar":     "1",
		"btnOrientation": "1",
		"btns": []any{
			map[string]any{"title": "Notes", "actionURL": "https://n?a=1"},
			map[string]any{"title": "Diff", "actionURL": "https://d"},
		},
	}
	if diff := cmp.Diff(want, wh.last(t)["actionCard"]); diff != "" {
		t.Fatalf("action card mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSendActionCard_BadButton(t *testing.T) {
	setup(t)
	err := RunSendActionCard(context.Background(), "t", "x", actionCardOptions{Single: "no-url"})
	if err == nil || !strings.Contains(err.Error(), "Title=URL") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseFeedLink(t *testing.T) {
	tests := []struct {
		in      string
		want    message.FeedLink
		wantErr bool
	}{
		{in: "A|https://a|https://p", want: message.FeedLink{Title: "A", MessageURL: "https://a", PicURL: "https://p"}},
		{in: "A|https://a", want: message.FeedLink{Title: "A", MessageURL: "https://a"}},
		{in: "A", wantErr: true},
		{in: "|https://a", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFeedLink(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseFeedLink(%q) err = %v", tt.in, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("parseFeedLink(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestRunSendFeedCard(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	Global.URL = srv.URL

	if err := RunSendFeedCard(context.Background(), []string{"A|https://a|https://p", "B|https://b"}); err != nil {
		t.Fatalf("RunSendFeedCard: %v", err)
	}
	links := wh.last(t)["feedCard"].(map[string]any)["links"].([]any)
	if len(links) != 2 {
		t.Fatalf("links = %v", links)
	}
}

func TestRunSendRaw(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	Global.URL = srv.URL

	path := filepath.Join(t.TempDir(), "payload.json")
	os.WriteFile(path, []byte(`{"msgtype":"text","text":{"content":"raw"}}`), 0o600)
	if err := RunSendRaw(context.Background(), path); err != nil {
		t.Fatalf("RunSendRaw: %v", err)
	}
	if wh.last(t)["text"].(map[string]any)["content"] != "raw" {
		t.Fatalf("unexpected body: %v", wh.last(t))
	}
}

func TestRobotCommands(t *testing.T) {
	out := setup(t)
	output.JSONMode = false

	if err := RunRobotAdd("ops", robotAddOptions{Token: "dingtalk:tokVALUE123?secVALUE456"}); err != nil {
		t.Fatalf("RunRobotAdd: %v", err)
	}
	if err := RunRobotAdd("wx", robotAddOptions{Type: "wecom", AccessToken: "key"}); err != nil {
		t.Fatalf("RunRobotAdd: %v", err)
	}
	if err := RunRobotAdd("bad", robotAddOptions{}); err == nil {
		t.Fatal("expected error without credentials")
	}
	if err := RunRobotAdd("bad", robotAddOptions{Token: "slack:x"}); !errors.Is(err, robot.ErrTokenFormat) {
		t.Fatalf("err = %v, want ErrTokenFormat", err)
	}

	p, err := config.GetRobot("ops")
	if err != nil {
		t.Fatalf("ops not stored: %v", err)
	}
	if diff := cmp.Diff(robot.Record{Type: "dingtalk", AccessToken: "tokVALUE123", SecToken: "secVALUE456"}, p.Record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if p, _ := config.GetRobot("wx"); p.Type != "wechatwork" {
		t.Fatalf("wx type = %q", p.Type)
	}

	if err := RunRobotDefault("wx"); err != nil {
		t.Fatal(err)
	}
	if def, _, _ := config.DefaultRobot(); def.Name != "wx" {
		t.Fatalf("default = %q", def.Name)
	}

	out.Reset()
	if err := RunRobotExport(false); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "tokVALUE123") || !strings.Contains(out.String(), "name: wx") {
		t.Fatalf("unexpected export:\n%s", out)
	}

	if err := RunRobotRemove("ops"); err != nil {
		t.Fatal(err)
	}
	if err := RunRobotRemove("ops"); !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRobotList_JSON(t *testing.T) {
	out := setup(t)
	config.AddRobot(config.RobotProfile{Name: "ops", Record: robot.Record{AccessToken: "abcdefgh"}})

	out.Reset()
	if err := RunRobotList(); err != nil {
		t.Fatal(err)
	}
	var res struct {
		Data []map[string]any `json:"data"`
	}
	json.Unmarshal(out.Bytes(), &res)
	want := []map[string]any{{"name": "ops", "access_token": "****efgh", "default": true}}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRobotTest(t *testing.T) {
	setup(t)
	wh, srv := newWebhook(t)
	config.AddRobot(config.RobotProfile{Name: "ops", Record: robot.Record{DirectURL: srv.URL}})

	if err := RunRobotTest(context.Background(), "ops"); err != nil {
		t.Fatalf("RunRobotTest: %v", err)
	}
	if wh.last(t)["text"].(map[string]any)["content"] != testMessage {
		t.Fatalf("unexpected body: %v", wh.last(t))
	}
	if err := RunRobotTest(context.Background(), "missing"); !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunSign(t *testing.T) {
	out := setup(t)
	Global.Token = "dingtalk:tok?SEC"
	origNow := now
	now = func() time.Time { return time.UnixMilli(1577836800000) }
	t.Cleanup(func() { now = origNow })

	if err := RunSign(); err != nil {
		t.Fatalf("RunSign: %v", err)
	}
	res := decodeResult(t, out)
	if res["timestamp"] != "1577836800000" || res["provider"] != "dingtalk" {
		t.Fatalf("unexpected result: %v", res)
	}
	url := res["url"].(string)
	if !strings.HasPrefix(url, robot.DefaultDingTalkURL+"?access_token=tok&timestamp=1577836800000&sign=") {
		t.Fatalf("url = %s", url)
	}
}

func TestRunNotify(t *testing.T) {
	out := setup(t)
	wh1, srv1 := newWebhook(t)
	wh2, srv2 := newWebhook(t)
	config.AddRobot(config.RobotProfile{Name: "a", Record: robot.Record{DirectURL: srv1.URL}})
	config.AddRobot(config.RobotProfile{Name: "b", Record: robot.Record{DirectURL: srv2.URL}})

	err := RunNotify(context.Background(), "build passed", notifyOptions{Title: "CI", Mobiles: []string{"138"}})
	if err != nil {
		t.Fatalf("RunNotify: %v", err)
	}
	for _, wh := range []*webhook{wh1, wh2} {
		md := wh.last(t)["markdown"].(map[string]any)
		if md["text"] != "### CI\n\nbuild passed" {
			t.Fatalf("unexpected markdown: %v", md)
		}
	}
	res := decodeResult(t, out)
	if res["notifier"] != "multi(a,b)" {
		t.Fatalf("unexpected result: %v", res)
	}
}

func TestRunNotify_SelectedRobots(t *testing.T) {
	setup(t)
	_, srv := newWebhook(t)
	config.AddRobot(config.RobotProfile{Name: "a", Record: robot.Record{DirectURL: srv.URL}})

	if err := RunNotify(context.Background(), "x", notifyOptions{Robots: []string{"a", "nope"}}); !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := RunNotify(context.Background(), "x", notifyOptions{Template: "{{.Oops"}); err == nil {
		t.Fatal("expected template error")
	}
}

func TestRunNotify_NoRobots(t *testing.T) {
	setup(t)
	if err := RunNotify(context.Background(), "x", notifyOptions{}); !errors.Is(err, config.ErrNoRobot) {
		t.Fatalf("err = %v, want ErrNoRobot", err)
	}
}

func TestMetricsTextfile(t *testing.T) {
	setup(t)
	_, srv := newWebhook(t)
	Global.URL = srv.URL
	Global.MetricsTextfile = filepath.Join(t.TempDir(), "robot.prom")

	if err := RunSendText(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(Global.MetricsTextfile)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "dingtalk_robot_send_total") {
		t.Fatalf("unexpected metrics:\n%s", data)
	}
}

func TestRunCompose_RequiresTerminal(t *testing.T) {
	setup(t)
	stdinIsTerminal = func() bool { return false }
	if err := RunCompose(context.Background()); err == nil {
		t.Fatal("expected error without a terminal")
	}
}
