package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"dingtalk/internal/config"
	"dingtalk/internal/message"
)

type tools struct {
	resolve Resolver
}

func withMentions(msg message.Message, atAll bool, mobiles []string) message.Message {
	if atAll {
		msg = msg.AtAll()
	}
	if len(mobiles) > 0 {
		msg = msg.AtMobiles(mobiles...)
	}
	return msg
}

type sendOutput struct {
	Sent    bool   `json:"sent"`
	Robot   string `json:"robot"`
	MsgType string `json:"msgtype"`
}

func (t *tools) deliver(ctx context.Context, name string, msg message.Message) (*mcpsdk.CallToolResult, sendOutput, error) {
	client, from, err := t.resolve(name)
	if err != nil {
		return nil, sendOutput{}, fmt.Errorf("failed to resolve robot: %w", err)
	}
	if err := client.Send(ctx, msg); err != nil {
		return nil, sendOutput{}, fmt.Errorf("failed to send: %w", err)
	}
	return nil, sendOutput{Sent: true, Robot: from, MsgType: string(msg.Kind())}, nil
}

// send_text

type sendTextInput struct {
	Robot     string   `json:"robot,omitempty" jsonschema:"Robot profile name, default robot when empty"`
	Content   string   `json:"content,omitempty" jsonschema:"Message text"`
	AtAll     bool     `json:"at_all,omitempty" jsonschema:"Mention everyone in the group"`
	AtMobiles []string `json:"at_mobiles,omitempty" jsonschema:"Mobile numbers of members to mention"`
}

func (t *tools) sendText(ctx context.Context, req *mcpsdk.CallToolRequest, input sendTextInput) (*mcpsdk.CallToolResult, sendOutput, error) {
	if input.Content == "" {
		return nil, sendOutput{}, fmt.Errorf("content is required")
	}
	return t.deliver(ctx, input.Robot, withMentions(message.NewText(input.Content), input.AtAll, input.AtMobiles))
}

// send_markdown

type sendMarkdownInput struct {
	Robot     string   `json:"robot,omitempty" jsonschema:"Robot profile name, default robot when empty"`
	Title     string   `json:"title,omitempty" jsonschema:"Title shown in the conversation list"`
	Text      string   `json:"text,omitempty" jsonschema:"Markdown body"`
	AtAll     bool     `json:"at_all,omitempty" jsonschema:"Mention everyone in the group"`
	AtMobiles []string `json:"at_mobiles,omitempty" jsonschema:"Mobile numbers of members to mention"`
}

func (t *tools) sendMarkdown(ctx context.Context, req *mcpsdk.CallToolRequest, input sendMarkdownInput) (*mcpsdk.CallToolResult, sendOutput, error) {
	if input.Title == "" || input.Text == "" {
		return nil, sendOutput{}, fmt.Errorf("title and text are required")
	}
	return t.deliver(ctx, input.Robot, withMentions(message.NewMarkdown(input.Title, input.Text), input.AtAll, input.AtMobiles))
}

// send_link

type sendLinkInput struct {
	Robot      string `json:"robot,omitempty" jsonschema:"Robot profile name, default robot when empty"`
	Title      string `json:"title,omitempty" jsonschema:"Link title"`
	Text       string `json:"text,omitempty" jsonschema:"Link summary"`
	PicURL     string `json:"pic_url,omitempty" jsonschema:"Picture URL"`
	MessageURL string `json:"message_url,omitempty" jsonschema:"URL opened when the card is clicked"`
}

func (t *tools) sendLink(ctx context.Context, req *mcpsdk.CallToolRequest, input sendLinkInput) (*mcpsdk.CallToolResult, sendOutput, error) {
	if input.Title == "" || input.MessageURL == "" {
		return nil, sendOutput{}, fmt.Errorf("title and message_url are required")
	}
	return t.deliver(ctx, input.Robot, message.NewLink(input.Title, input.Text, input.PicURL, input.MessageURL))
}

// send_action_card

type cardButton struct {
	Title string `json:"title" jsonschema:"Button label"`
	URL   string `json:"url" jsonschema:"URL opened by the button"`
}

type sendActionCardInput struct {
	Robot      string       `json:"robot,omitempty" jsonschema:"Robot profile name, default robot when empty"`
	Title      string       `json:"title,omitempty" jsonschema:"Card title"`
	Text       string       `json:"text,omitempty" jsonschema:"Markdown body of the card"`
	Single     *cardButton  `json:"single,omitempty" jsonschema:"Single full-width button, overrides buttons"`
	Buttons    []cardButton `json:"buttons,omitempty" jsonschema:"Independent buttons"`
	HideAvatar bool         `json:"hide_avatar,omitempty" jsonschema:"Hide the sender avatar"`
	Landscape  bool         `json:"landscape,omitempty" jsonschema:"Lay buttons out horizontally"`
}

func (t *tools) sendActionCard(ctx context.Context, req *mcpsdk.CallToolRequest, input sendActionCardInput) (*mcpsdk.CallToolResult, sendOutput, error) {
	if input.Title == "" || input.Text == "" {
		return nil, sendOutput{}, fmt.Errorf("title and text are required")
	}
	msg := message.NewActionCard(input.Title, input.Text)
	if input.Single != nil {
		msg = msg.SingleButton(message.Button{Title: input.Single.Title, ActionURL: input.Single.URL})
	}
	for _, b := range input.Buttons {
		msg = msg.AddButton(message.Button{Title: b.Title, ActionURL: b.URL})
	}
	if input.HideAvatar {
		msg = msg.HideAvatar()
	}
	if input.Landscape {
		msg = msg.Landscape()
	}
	return t.deliver(ctx, input.Robot, msg)
}

// list_robots

type listRobotsInput struct{}

type robotInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	Signed      bool   `json:"signed"`
	Default     bool   `json:"default"`
}

type listRobotsOutput struct {
	Robots []robotInfo `json:"robots"`
}

func listRobotsHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input listRobotsInput) (*mcpsdk.CallToolResult, listRobotsOutput, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, listRobotsOutput{}, fmt.Errorf("failed to load config: %w", err)
	}

	infos := make([]robotInfo, 0, len(cfg.Robots))
	for _, r := range cfg.Robots {
		infos = append(infos, robotInfo{
			Name:        r.Name,
			Provider:    r.Config().Provider.String(),
			AccessToken: config.MaskSecret(r.AccessToken),
			Signed:      r.SecToken != "",
			Default:     r.Name == cfg.Default,
		})
	}
	return nil, listRobotsOutput{Robots: infos}, nil
}
