// Package message describes robot messages independently of the provider
// they are delivered to.
//
// A Message carries exactly one Body variant plus the mention block shared by
// all variants. Messages are values: every setter returns a new Message and
// never mutates the receiver, so a Message can be built once and handed to
// any number of goroutines.
package message

// Kind names a message variant. The values are the literal tags the
// providers expect in the msgtype field.
type Kind string

const (
	KindText       Kind = "text"
	KindMarkdown   Kind = "markdown"
	KindLink       Kind = "link"
	KindActionCard Kind = "actionCard"
	KindFeedCard   Kind = "feedCard"
)

// Kinds lists every supported variant in declaration order.
var Kinds = []Kind{KindText, KindMarkdown, KindLink, KindActionCard, KindFeedCard}

// Body is the variant part of a Message. It is implemented only by the
// types in this package.
type Body interface {
	Kind() Kind
	body()
}

// Text is a plain text message.
type Text struct {
	Content string
}

// Markdown is a markdown message. Title is what the chat list shows.
type Markdown struct {
	Title string
	Text  string
}

// Link is a link preview message.
type Link struct {
	Title      string
	Text       string
	PicURL     string
	MessageURL string
}

// Button is an action card button.
type Button struct {
	Title     string
	ActionURL string
}

// ActionCard is a card with either a single button or a list of buttons.
// When Single is set the Buttons list is ignored on the wire.
type ActionCard struct {
	Title      string
	Text       string
	HideAvatar bool
	Landscape  bool
	Single     *Button
	Buttons    []Button
}

// FeedLink is one entry of a feed card.
type FeedLink struct {
	Title      string
	MessageURL string
	PicURL     string
}

// FeedCard is an ordered list of links.
type FeedCard struct {
	Links []FeedLink
}

func (Text) Kind() Kind       { return KindText }
func (Markdown) Kind() Kind   { return KindMarkdown }
func (Link) Kind() Kind       { return KindLink }
func (ActionCard) Kind() Kind { return KindActionCard }
func (FeedCard) Kind() Kind   { return KindFeedCard }

func (Text) body()       {}
func (Markdown) body()   {}
func (Link) body()       {}
func (ActionCard) body() {}
func (FeedCard) body()   {}

// Message is a robot message: one Body plus an optional mention block.
type Message struct {
	body      Body
	atAll     bool
	atMobiles []string
}

// New returns a message of the given kind with default field values.
// Unknown kinds fall back to an empty text message.
func New(kind Kind) Message {
	switch kind {
	case KindMarkdown:
		return Message{body: Markdown{}}
	case KindLink:
		return Message{body: Link{}}
	case KindActionCard:
		return Message{body: ActionCard{}}
	case KindFeedCard:
		return Message{body: FeedCard{}}
	default:
		return Message{body: Text{}}
	}
}

// NewText returns a text message.
func NewText(content string) Message {
	return New(KindText).Text(content)
}

// NewMarkdown returns a markdown message.
func NewMarkdown(title, text string) Message {
	return New(KindMarkdown).Markdown(title, text)
}

// NewLink returns a link message.
func NewLink(title, text, picURL, messageURL string) Message {
	return New(KindLink).Link(title, text, picURL, messageURL)
}

// NewActionCard returns an action card with a visible avatar and vertical
// buttons.
func NewActionCard(title, text string) Message {
	return Message{body: ActionCard{Title: title, Text: text}}
}

// NewFeedCard returns an empty feed card.
func NewFeedCard() Message {
	return New(KindFeedCard)
}

// Body returns the variant carried by m. The zero Message carries an empty
// Text body.
func (m Message) Body() Body {
	if m.body == nil {
		return Text{}
	}
	return m.body
}

// Kind reports the active variant.
func (m Message) Kind() Kind { return m.Body().Kind() }

// IsAtAll reports whether the message mentions everyone.
func (m Message) IsAtAll() bool { return m.atAll }

// Mobiles returns a copy of the mentioned mobile numbers in insertion order.
func (m Message) Mobiles() []string {
	return append([]string(nil), m.atMobiles...)
}

// HasMention reports whether the message carries a mention block.
func (m Message) HasMention() bool {
	return m.atAll || len(m.atMobiles) > 0
}
