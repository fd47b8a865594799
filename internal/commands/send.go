package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"dingtalk/internal/config"
	"dingtalk/internal/message"
	"dingtalk/internal/metrics"
	"dingtalk/internal/output"
	"dingtalk/internal/robot"
	"dingtalk/internal/ui"
)

// mentionFlags are the @ options shared by the send subcommands.
type mentionFlags struct {
	AtAll   bool
	Mobiles []string
}

var mentions mentionFlags

func (f mentionFlags) apply(m message.Message) message.Message {
	if f.AtAll {
		m = m.AtAll()
	}
	if len(f.Mobiles) > 0 {
		m = m.AtMobiles(f.Mobiles...)
	}
	return m
}

// stdin is the message source when no content argument is given,
// overridable in tests.
var (
	stdin           io.Reader = os.Stdin
	stdinIsTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var errNoInput = errors.New("no content: pass it as an argument or pipe it on stdin")

// readInput returns arg, or the whole of stdin when arg is empty.
func readInput(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if stdinIsTerminal() {
		return "", errNoInput
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimRight(string(data), "\r\n")
	if content == "" {
		return "", errNoInput
	}
	return content, nil
}

var recorder = metrics.New()

// clientOptions are the robot options derived from the global flags.
func clientOptions() []robot.Option {
	opts := []robot.Option{robot.WithObserver(recorder)}
	if Global.Timeout > 0 {
		opts = append(opts, robot.WithHTTPClient(&http.Client{Timeout: Global.Timeout}))
	}
	return opts
}

// resolveClient picks the robot named by the global flags.
func resolveClient() (*robot.Client, string, error) {
	return config.Resolve(config.Source{
		Robot: Global.Robot,
		Token: Global.Token,
		File:  Global.ConfigFile,
		URL:   Global.URL,
	}, clientOptions()...)
}

func flushMetrics() {
	// Failures are logged by the recorder and never fail a send.
	_ = recorder.WriteTextfile(Global.MetricsTextfile)
}

type sendResult struct {
	Robot   string `json:"robot"`
	MsgType string `json:"msgtype"`
}

// deliver sends m through the selected robot and reports the outcome.
func deliver(ctx context.Context, m message.Message) error {
	client, from, err := resolveClient()
	if err != nil {
		return err
	}
	err = client.Send(ctx, m)
	flushMetrics()
	if err != nil {
		return fmt.Errorf("send to %s: %w", from, err)
	}

	output.Print(sendResult{Robot: from, MsgType: string(m.Kind())}, func() {
		ui.ShowSuccess("Sent %s message via %s", m.Kind(), from)
	})
	return nil
}

// RunSendText sends a text message.
func RunSendText(ctx context.Context, content string) error {
	content, err := readInput(content)
	if err != nil {
		return err
	}
	return deliver(ctx, mentions.apply(message.NewText(content)))
}

// RunSendMarkdown sends a markdown message.
func RunSendMarkdown(ctx context.Context, title, text string) error {
	text, err := readInput(text)
	if err != nil {
		return err
	}
	return deliver(ctx, mentions.apply(message.NewMarkdown(title, text)))
}

// RunSendLink sends a link message.
func RunSendLink(ctx context.Context, title, text, picURL, messageURL string) error {
	return deliver(ctx, mentions.apply(message.NewLink(title, text, picURL, messageURL)))
}

type actionCardOptions struct {
	Single     string
	Buttons    []string
	HideAvatar bool
	Landscape  bool
}

// parseButton splits "Title=URL".
func parseButton(s string) (message.Button, error) {
	title, url, ok := strings.Cut(s, "=")
	title, url = strings.TrimSpace(title), strings.TrimSpace(url)
	if !ok || title == "" || url == "" {
		return message.Button{}, fmt.Errorf("invalid button %q: want Title=URL", s)
	}
	return message.Button{Title: title, ActionURL: url}, nil
}

// RunSendActionCard sends an action card.
func RunSendActionCard(ctx context.Context, title, text string, opts actionCardOptions) error {
	text, err := readInput(text)
	if err != nil {
		return err
	}

	m := message.NewActionCard(title, text)
	if opts.Single != "" {
		b, err := parseButton(opts.Single)
		if err != nil {
			return err
		}
		m = m.SingleButton(b)
	}
	for _, s := range opts.Buttons {
		b, err := parseButton(s)
		if err != nil {
			return err
		}
		m = m.AddButton(b)
	}
	if opts.HideAvatar {
		m = m.HideAvatar()
	}
	if opts.Landscape {
		m = m.Landscape()
	}
	return deliver(ctx, mentions.apply(m))
}

// parseFeedLink splits "Title|MessageURL|PicURL".
func parseFeedLink(s string) (message.FeedLink, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return message.FeedLink{}, fmt.Errorf("invalid feed link %q: want Title|MessageURL|PicURL", s)
	}
	l := message.FeedLink{Title: strings.TrimSpace(parts[0]), MessageURL: strings.TrimSpace(parts[1])}
	if len(parts) == 3 {
		l.PicURL = strings.TrimSpace(parts[2])
	}
	return l, nil
}

// RunSendFeedCard sends a feed card.
func RunSendFeedCard(ctx context.Context, links []string) error {
	if len(links) == 0 {
		return errors.New("at least one --link is required")
	}
	m := message.NewFeedCard()
	for _, s := range links {
		l, err := parseFeedLink(s)
		if err != nil {
			return err
		}
		m = m.AddFeedLink(l)
	}
	return deliver(ctx, mentions.apply(m))
}

// RunSendRaw posts a JSON document read from path, or stdin when path is
// empty.
func RunSendRaw(ctx context.Context, path string) error {
	var body string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		body = string(data)
	} else {
		var err error
		if body, err = readInput(""); err != nil {
			return err
		}
	}

	client, from, err := resolveClient()
	if err != nil {
		return err
	}
	err = client.SendJSON(ctx, []byte(body))
	flushMetrics()
	if err != nil {
		return fmt.Errorf("send to %s: %w", from, err)
	}
	output.Print(sendResult{Robot: from, MsgType: "raw"}, func() {
		ui.ShowSuccess("Sent raw payload via %s", from)
	})
	return nil
}
