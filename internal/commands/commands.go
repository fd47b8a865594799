package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dingtalk/internal/config"
	mcpserver "dingtalk/internal/mcp"
	"dingtalk/internal/notify"
	"dingtalk/internal/output"
	"dingtalk/internal/robot"
	"dingtalk/internal/signer"
	"dingtalk/internal/tui"
	"dingtalk/internal/ui"
)

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func RunVersion() {
	output.Print(map[string]string{"version": Version, "commit": Commit, "date": Date}, func() {
		fmt.Printf("dingtalk version %s (commit %s, built %s)\n", Version, Commit, Date)
	})
}

type signResult struct {
	Robot     string `json:"robot"`
	Provider  string `json:"provider"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp,omitempty"`
}

// now is the clock used by sign, overridable in tests.
var now = time.Now

// RunSign prints the request URL of the selected robot.
func RunSign() error {
	client, from, err := resolveClient()
	if err != nil {
		return err
	}
	cfg := client.Config()
	t := now()
	url, err := signer.URL(cfg.Endpoint(), t)
	if err != nil {
		return err
	}

	res := signResult{Robot: from, Provider: cfg.Provider.String(), URL: url}
	if cfg.SecToken != "" && cfg.DirectURL == "" {
		res.Timestamp = signer.Timestamp(t)
	}
	output.Print(res, func() {
		fmt.Println(url)
	})
	return nil
}

// RunCompose opens the compose form for the selected robot.
func RunCompose(ctx context.Context) error {
	if !stdinIsTerminal() {
		return errors.New("compose needs an interactive terminal; use 'dingtalk send' instead")
	}
	client, from, err := resolveClient()
	if err != nil {
		return err
	}

	sent, err := tui.RunCompose(ctx, from, client.Send)
	flushMetrics()
	if err != nil {
		return err
	}
	ui.ShowInfo("%d message(s) sent via %s", sent, from)
	return nil
}

type notifyOptions struct {
	Title    string
	Robots   []string
	Template string
	AtAll    bool
	Mobiles  []string
}

type notifyResult struct {
	Notifier string   `json:"notifier"`
	Robots   []string `json:"robots"`
}

// notifiers builds one RobotNotifier per named profile, or per configured
// profile when names is empty.
func notifiers(names []string, tmpl string) ([]notify.Notifier, []string, error) {
	var profiles []config.RobotProfile
	if len(names) == 0 {
		all, err := config.ListRobots()
		if err != nil {
			return nil, nil, err
		}
		profiles = all
	} else {
		for _, name := range names {
			p, err := config.GetRobot(name)
			if err != nil {
				return nil, nil, err
			}
			profiles = append(profiles, p)
		}
	}
	if len(profiles) == 0 {
		return nil, nil, config.ErrNoRobot
	}

	ns := make([]notify.Notifier, 0, len(profiles))
	used := make([]string, 0, len(profiles))
	for _, p := range profiles {
		rn := notify.NewRobotNotifier(p.Name, robot.FromRecord(p.Record, clientOptions()...))
		if tmpl != "" {
			var err error
			if rn, err = rn.WithTemplate(tmpl); err != nil {
				return nil, nil, err
			}
		}
		ns = append(ns, rn)
		used = append(used, p.Name)
	}
	return ns, used, nil
}

// RunNotify broadcasts one notification to several robots.
func RunNotify(ctx context.Context, text string, opts notifyOptions) error {
	ns, used, err := notifiers(opts.Robots, opts.Template)
	if err != nil {
		return err
	}

	multi := notify.NewMultiNotifier(ns...)
	err = multi.Send(ctx, notify.Notification{
		Title:   opts.Title,
		Message: text,
		AtAll:   opts.AtAll,
		Mobiles: opts.Mobiles,
	})
	flushMetrics()
	if err != nil {
		return err
	}

	output.Print(notifyResult{Notifier: multi.Name(), Robots: used}, func() {
		ui.ShowSuccess("Notified %d robot(s)", len(used))
	})
	return nil
}

// RunMCP serves the robot tools over stdio until ctx is done.
func RunMCP(ctx context.Context) error {
	return mcpserver.RunServer(ctx, Version, clientOptions()...)
}

// RunDefault is the root command: the compose form on a terminal,
// otherwise stdin is sent as a text message.
func RunDefault(ctx context.Context) error {
	if stdinIsTerminal() {
		return RunCompose(ctx)
	}
	return RunSendText(ctx, "")
}
