// Package payload maps messages to the JSON documents robot webhooks accept.
//
// Each variant has its own wire struct; optional parts are pointers or
// slices tagged omitempty so absent sections are left out of the document
// instead of being serialized as null.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"dingtalk/internal/message"
)

// ErrSerialization is returned when a message cannot be encoded.
var ErrSerialization = errors.New("payload: serialization failed")

// Flag values used by action cards. The providers expect strings.
const (
	avatarShown  = "0"
	avatarHidden = "1"

	orientationVertical  = "0"
	orientationLandscape = "1"
)

// Envelope is the top-level document. Exactly one of the variant fields is
// set and its key matches MsgType.
type Envelope struct {
	MsgType    message.Kind `json:"msgtype"`
	Text       *Text        `json:"text,omitempty"`
	Markdown   *Markdown    `json:"markdown,omitempty"`
	Link       *Link        `json:"link,omitempty"`
	ActionCard *ActionCard  `json:"actionCard,omitempty"`
	FeedCard   *FeedCard    `json:"feedCard,omitempty"`
	At         *At          `json:"at,omitempty"`
}

type Text struct {
	Content string `json:"content"`
}

type Markdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Link struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	PicURL     string `json:"picUrl"`
	MessageURL string `json:"messageUrl"`
}

// ActionCard carries either SingleTitle/SingleURL or Btns, never both.
type ActionCard struct {
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	HideAvatar     string   `json:"hideAvatar"`
	BtnOrientation string   `json:"btnOrientation"`
	SingleTitle    *string  `json:"singleTitle,omitempty"`
	SingleURL      *string  `json:"singleURL,omitempty"`
	Btns           []Button `json:"btns,omitempty"`
}

type Button struct {
	Title     string `json:"title"`
	ActionURL string `json:"actionURL"`
}

type FeedCard struct {
	Links []FeedLink `json:"links"`
}

type FeedLink struct {
	Title      string `json:"title"`
	MessageURL string `json:"messageURL"`
	PicURL     string `json:"picURL"`
}

// At is the mention block. AtMobiles is always emitted, possibly empty.
type At struct {
	AtMobiles []string `json:"atMobiles"`
	IsAtAll   bool     `json:"isAtAll"`
}

// Build converts m into its wire envelope.
func Build(m message.Message) Envelope {
	env := Envelope{MsgType: m.Kind()}

	switch b := m.Body().(type) {
	case message.Text:
		env.Text = &Text{Content: b.Content}
	case message.Markdown:
		env.Markdown = &Markdown{Title: b.Title, Text: b.Text}
	case message.Link:
		env.Link = &Link{
			Title:      b.Title,
			Text:       b.Text,
			PicURL:     b.PicURL,
			MessageURL: b.MessageURL,
		}
	case message.ActionCard:
		env.ActionCard = buildActionCard(b)
	case message.FeedCard:
		links := make([]FeedLink, 0, len(b.Links))
		for _, l := range b.Links {
			links = append(links, FeedLink{Title: l.Title, MessageURL: l.MessageURL, PicURL: l.PicURL})
		}
		env.FeedCard = &FeedCard{Links: links}
	}

	if m.HasMention() {
		mobiles := m.Mobiles()
		if mobiles == nil {
			mobiles = []string{}
		}
		env.At = &At{AtMobiles: mobiles, IsAtAll: m.IsAtAll()}
	}
	return env
}

func buildActionCard(b message.ActionCard) *ActionCard {
	card := &ActionCard{
		Title:          b.Title,
		Text:           b.Text,
		HideAvatar:     avatarShown,
		BtnOrientation: orientationVertical,
	}
	if b.HideAvatar {
		card.HideAvatar = avatarHidden
	}
	if b.Landscape {
		card.BtnOrientation = orientationLandscape
	}

	switch {
	case b.Single != nil:
		title, url := b.Single.Title, b.Single.ActionURL
		card.SingleTitle = &title
		card.SingleURL = &url
	case len(b.Buttons) > 0:
		card.Btns = make([]Button, 0, len(b.Buttons))
		for _, btn := range b.Buttons {
			card.Btns = append(card.Btns, Button{Title: btn.Title, ActionURL: btn.ActionURL})
		}
	}
	return card
}

// Marshal encodes m as the JSON document the robot endpoint expects.
// URLs are written verbatim; '&', '<' and '>' are not escaped.
func Marshal(m message.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Build(m)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
