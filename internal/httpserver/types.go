package httpserver

import (
	"errors"
	"fmt"
	"time"

	"dingtalk/internal/message"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ButtonRequest is an action card button
type ButtonRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// FeedLinkRequest is one feed card entry
type FeedLinkRequest struct {
	Title      string `json:"title"`
	MessageURL string `json:"message_url"`
	PicURL     string `json:"pic_url,omitempty"`
}

// SendRequest is the body of POST /send. Only the fields of the chosen
// msgtype are read.
type SendRequest struct {
	Robot   string `json:"robot,omitempty"`
	MsgType string `json:"msgtype"`

	Content    string            `json:"content,omitempty"`     // text
	Title      string            `json:"title,omitempty"`       // markdown, link, actionCard
	Text       string            `json:"text,omitempty"`        // markdown, link, actionCard
	PicURL     string            `json:"pic_url,omitempty"`     // link
	MessageURL string            `json:"message_url,omitempty"` // link
	Single     *ButtonRequest    `json:"single,omitempty"`      // actionCard
	Buttons    []ButtonRequest   `json:"buttons,omitempty"`     // actionCard
	HideAvatar bool              `json:"hide_avatar,omitempty"` // actionCard
	Landscape  bool              `json:"landscape,omitempty"`   // actionCard
	Links      []FeedLinkRequest `json:"links,omitempty"`       // feedCard

	AtAll     bool     `json:"at_all,omitempty"`
	AtMobiles []string `json:"at_mobiles,omitempty"`
}

// Message converts the request into a robot message.
func (r SendRequest) Message() (message.Message, error) {
	var m message.Message
	switch message.Kind(r.MsgType) {
	case message.KindText, "":
		if r.Content == "" {
			return m, errors.New("field 'content' is required")
		}
		m = message.NewText(r.Content)
	case message.KindMarkdown:
		if r.Title == "" || r.Text == "" {
			return m, errors.New("fields 'title' and 'text' are required")
		}
		m = message.NewMarkdown(r.Title, r.Text)
	case message.KindLink:
		if r.Title == "" || r.MessageURL == "" {
			return m, errors.New("fields 'title' and 'message_url' are required")
		}
		m = message.NewLink(r.Title, r.Text, r.PicURL, r.MessageURL)
	case message.KindActionCard:
		if r.Title == "" || r.Text == "" {
			return m, errors.New("fields 'title' and 'text' are required")
		}
		m = message.NewActionCard(r.Title, r.Text)
		if r.Single != nil {
			m = m.SingleButton(message.Button{Title: r.Single.Title, ActionURL: r.Single.URL})
		}
		for _, b := range r.Buttons {
			m = m.AddButton(message.Button{Title: b.Title, ActionURL: b.URL})
		}
		if r.HideAvatar {
			m = m.HideAvatar()
		}
		if r.Landscape {
			m = m.Landscape()
		}
	case message.KindFeedCard:
		if len(r.Links) == 0 {
			return m, errors.New("field 'links' is required")
		}
		m = message.NewFeedCard()
		for _, l := range r.Links {
			m = m.AddFeedLinkDetail(l.Title, l.MessageURL, l.PicURL)
		}
	default:
		return m, fmt.Errorf("unknown msgtype %q (want one of %v)", r.MsgType, message.Kinds)
	}

	if r.AtAll {
		m = m.AtAll()
	}
	if len(r.AtMobiles) > 0 {
		m = m.AtMobiles(r.AtMobiles...)
	}
	return m, nil
}

// SendResponse is returned after a successful delivery
type SendResponse struct {
	Robot   string `json:"robot"`
	MsgType string `json:"msgtype"`
}

// RobotSummary is one entry of GET /robots
type RobotSummary struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Signed   bool   `json:"signed"`
	Default  bool   `json:"default"`
}

// RobotListResponse is returned by GET /robots
type RobotListResponse struct {
	Robots []RobotSummary `json:"robots"`
}

// DeliveryEvent is streamed to /events subscribers after every send.
type DeliveryEvent struct {
	Robot     string    `json:"robot"`
	MsgType   string    `json:"msgtype"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Time      time.Time `json:"time"`
}
