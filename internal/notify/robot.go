package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"dingtalk/internal/message"
	"dingtalk/internal/robot"
)

// RobotNotifier delivers notifications through a webhook robot as markdown.
type RobotNotifier struct {
	name   string
	client *robot.Client
	tmpl   *template.Template
}

// DefaultTemplate renders the markdown body of a notification.
const DefaultTemplate = "### {{.Title}}\n\n{{.Message}}"

// NewRobotNotifier creates a notifier named name that sends through c.
func NewRobotNotifier(name string, c *robot.Client) *RobotNotifier {
	return &RobotNotifier{
		name:   name,
		client: c,
		tmpl:   template.Must(template.New("notify").Parse(DefaultTemplate)),
	}
}

// WithTemplate replaces the markdown template. The template sees the
// Notification fields.
func (r *RobotNotifier) WithTemplate(text string) (*RobotNotifier, error) {
	tmpl, err := template.New("notify").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("notify template parse: %w", err)
	}
	cp := *r
	cp.tmpl = tmpl
	return &cp, nil
}

// Message renders n into the robot message that Send would deliver.
// Notifications without a title are sent as plain text.
func (r *RobotNotifier) Message(n Notification) (message.Message, error) {
	var m message.Message
	if n.Title == "" {
		m = message.NewText(n.Message)
	} else {
		var buf bytes.Buffer
		if err := r.tmpl.Execute(&buf, n); err != nil {
			return message.Message{}, fmt.Errorf("notify template execute: %w", err)
		}
		m = message.NewMarkdown(n.Title, buf.String())
	}
	if n.AtAll {
		m = m.AtAll()
	}
	if len(n.Mobiles) > 0 {
		m = m.AtMobiles(n.Mobiles...)
	}
	return m, nil
}

// Send posts the notification to the robot.
func (r *RobotNotifier) Send(ctx context.Context, n Notification) error {
	m, err := r.Message(n)
	if err != nil {
		return err
	}
	return r.client.Send(ctx, m)
}

// Name returns the robot name.
func (r *RobotNotifier) Name() string { return r.name }
