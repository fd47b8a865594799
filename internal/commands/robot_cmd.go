package commands

import (
	"context"
	"errors"
	"fmt"

	"dingtalk/internal/config"
	"dingtalk/internal/message"
	"dingtalk/internal/output"
	"dingtalk/internal/robot"
	"dingtalk/internal/ui"
)

type robotAddOptions struct {
	Token       string
	Type        string
	AccessToken string
	Secret      string
	WebhookURL  string
	DirectURL   string
}

func (o robotAddOptions) record() (robot.Record, error) {
	if o.Token != "" {
		c, err := robot.FromToken(o.Token)
		if err != nil {
			return robot.Record{}, err
		}
		return robot.RecordOf(c.Config()), nil
	}
	if o.AccessToken == "" && o.DirectURL == "" {
		return robot.Record{}, errors.New("either --from-token, --access-token or --direct-url is required")
	}
	return robot.RecordOf(robot.Record{
		Type:              o.Type,
		DefaultWebhookURL: o.WebhookURL,
		AccessToken:       o.AccessToken,
		SecToken:          o.Secret,
		DirectURL:         o.DirectURL,
	}.Config()), nil
}

// RunRobotAdd stores a robot profile.
func RunRobotAdd(name string, opts robotAddOptions) error {
	rec, err := opts.record()
	if err != nil {
		return err
	}
	profile := config.RobotProfile{Name: name, Record: rec}
	if err := config.AddRobot(profile); err != nil {
		return fmt.Errorf("add robot: %w", err)
	}

	output.Print(profile.Masked(), func() {
		ui.ShowSuccess("Robot %s saved", name)
		ui.ShowField("Provider", rec.Type)
		if rec.SecToken != "" {
			ui.ShowField("Signed", "yes")
		}
	})
	return nil
}

// RunRobotRemove deletes a robot profile.
func RunRobotRemove(name string) error {
	if err := config.RemoveRobot(name); err != nil {
		return err
	}
	output.Print(map[string]string{"removed": name}, func() {
		ui.ShowSuccess("Robot removed: %s", name)
	})
	return nil
}

// RunRobotDefault selects the default robot.
func RunRobotDefault(name string) error {
	if err := config.SetDefault(name); err != nil {
		return err
	}
	output.Print(map[string]string{"default": name}, func() {
		ui.ShowSuccess("Default robot: %s", name)
	})
	return nil
}

type robotListEntry struct {
	config.RobotProfile
	Default bool `json:"default"`
}

// RunRobotList prints the robot profiles with masked credentials.
func RunRobotList() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	entries := make([]robotListEntry, 0, len(cfg.Robots))
	for _, r := range cfg.Robots {
		entries = append(entries, robotListEntry{RobotProfile: r.Masked(), Default: r.Name == cfg.Default})
	}

	output.Print(entries, func() {
		if len(entries) == 0 {
			ui.ShowInfo("No robots configured. Add one with: dingtalk robot add <name> --from-token dingtalk:TOKEN")
			return
		}
		ui.ShowHeader("Robots")
		for i, e := range entries {
			c := e.Config()
			endpoint := c.WebhookURL
			if c.DirectURL != "" {
				endpoint = c.DirectURL
			}
			ui.ShowRobot(i+1, e.Name, c.Provider.String(), endpoint, e.Default)
		}
	})
	return nil
}

const testMessage = "Robot test message from dingtalk CLI"

// RunRobotTest sends a text message through the named robot, or the robot
// selected by the global flags when name is empty.
func RunRobotTest(ctx context.Context, name string) error {
	if name == "" {
		return deliver(ctx, message.NewText(testMessage))
	}
	p, err := config.GetRobot(name)
	if err != nil {
		return err
	}
	err = robot.FromRecord(p.Record, clientOptions()...).SendText(ctx, testMessage)
	flushMetrics()
	if err != nil {
		return fmt.Errorf("test %s: %w", name, err)
	}
	output.Print(sendResult{Robot: name, MsgType: string(message.KindText)}, func() {
		ui.ShowSuccess("Robot %s is working", name)
	})
	return nil
}

// RunRobotExport writes the profiles as YAML.
func RunRobotExport(reveal bool) error {
	robots, err := config.ListRobots()
	if err != nil {
		return err
	}
	return config.ExportYAML(output.Stdout, robots, reveal)
}
