package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"dingtalk/internal/message"
)

// SendFunc delivers a composed message.
type SendFunc func(ctx context.Context, m message.Message) error

// sentMsg carries the result of a send.
type sentMsg struct {
	err error
}

const (
	fieldTitle = iota
	fieldBody
	fieldPicURL
	fieldMessageURL
	fieldMobiles
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Body", "Picture URL", "Message URL", "@Mobiles"}

// composeKinds are the message types that fit a single-screen form.
var composeKinds = []message.Kind{message.KindText, message.KindMarkdown, message.KindLink}

// ComposeModel is a form that builds and sends one message at a time.
type ComposeModel struct {
	ctx     context.Context
	robot   string
	send    SendFunc
	kindIdx int
	inputs  [fieldCount]textinput.Model
	focused int // index into visibleFields()
	atAll   bool
	sending bool
	sent    int
	status  string
	err     string
	help    help.Model
}

// NewCompose creates a compose form for the named robot.
func NewCompose(ctx context.Context, robot string, send SendFunc) ComposeModel {
	var inputs [fieldCount]textinput.Model
	placeholders := [fieldCount]string{
		"Deploy finished",
		"Message text",
		"https://example.com/pic.png (optional)",
		"https://example.com",
		"13800000000,13900000000 (optional)",
	}
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 2000
		inputs[i] = ti
	}

	m := ComposeModel{
		ctx:    ctx,
		robot:  robot,
		send:   send,
		inputs: inputs,
		help:   help.New(),
	}
	m.focusInput()
	return m
}

func (m ComposeModel) kind() message.Kind { return composeKinds[m.kindIdx] }

func (m ComposeModel) visibleFields() []int {
	switch m.kind() {
	case message.KindMarkdown:
		return []int{fieldTitle, fieldBody, fieldMobiles}
	case message.KindLink:
		return []int{fieldTitle, fieldBody, fieldPicURL, fieldMessageURL}
	default:
		return []int{fieldBody, fieldMobiles}
	}
}

func (m *ComposeModel) focusInput() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	fields := m.visibleFields()
	m.inputs[fields[m.focused]].Focus()
}

func (m ComposeModel) value(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

// Message builds the message described by the form.
func (m ComposeModel) Message() (message.Message, error) {
	title, body := m.value(fieldTitle), m.value(fieldBody)

	var msg message.Message
	switch m.kind() {
	case message.KindMarkdown:
		if title == "" || body == "" {
			return msg, errors.New("title and body are required")
		}
		msg = message.NewMarkdown(title, body)
	case message.KindLink:
		messageURL := m.value(fieldMessageURL)
		if title == "" || body == "" || messageURL == "" {
			return msg, errors.New("title, body and message URL are required")
		}
		msg = message.NewLink(title, body, m.value(fieldPicURL), messageURL)
	default:
		if body == "" {
			return msg, errors.New("body is required")
		}
		msg = message.NewText(body)
	}

	if m.atAll {
		msg = msg.AtAll()
	}
	if mobiles := splitList(m.value(fieldMobiles)); len(mobiles) > 0 && m.kind() != message.KindLink {
		msg = msg.AtMobiles(mobiles...)
	}
	return msg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Sent reports how many messages were delivered in this session.
func (m ComposeModel) Sent() int { return m.sent }

func (m ComposeModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sentMsg:
		m.sending = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.status = ""
			return m, nil
		}
		m.sent++
		m.err = ""
		m.status = "Sent " + string(m.kind()) + " message"
		m.inputs[fieldBody].SetValue("")
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.sending {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Kind):
			m.kindIdx = (m.kindIdx + 1) % len(composeKinds)
			m.focused = 0
			m.focusInput()
			return m, nil
		case key.Matches(msg, keys.Next):
			m.focused = (m.focused + 1) % len(m.visibleFields())
			m.focusInput()
			return m, nil
		case key.Matches(msg, keys.Prev):
			n := len(m.visibleFields())
			m.focused = (m.focused + n - 1) % n
			m.focusInput()
			return m, nil
		case key.Matches(msg, keys.AtAll):
			m.atAll = !m.atAll
			return m, nil
		case key.Matches(msg, keys.Send):
			out, err := m.Message()
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.err = ""
			m.status = ""
			m.sending = true
			ctx, send := m.ctx, m.send
			return m, func() tea.Msg {
				return sentMsg{err: send(ctx, out)}
			}
		}
	}

	field := m.visibleFields()[m.focused]
	var cmd tea.Cmd
	m.inputs[field], cmd = m.inputs[field].Update(msg)
	return m, cmd
}

func (m ComposeModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Robot: "+m.robot) + "\n\n")

	tabs := make([]string, len(composeKinds))
	for i, k := range composeKinds {
		if i == m.kindIdx {
			tabs[i] = activeTabStyle.Render(string(k))
		} else {
			tabs[i] = inactiveTabStyle.Render(string(k))
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n\n")

	for i, field := range m.visibleFields() {
		label := formLabelStyle.Render(fieldLabels[field])
		if i == m.focused {
			label = formFocusStyle.Render("▸ " + fieldLabels[field])
		}
		b.WriteString(label + "\n")
		b.WriteString(m.inputs[field].View() + "\n\n")
	}

	if m.atAll {
		b.WriteString(statusWarnStyle.Render("@all enabled") + "\n\n")
	}

	switch {
	case m.sending:
		b.WriteString(inactiveTabStyle.Render("Sending...") + "\n")
	case m.err != "":
		b.WriteString(statusErrorStyle.Render("⚠ "+m.err) + "\n")
	case m.status != "":
		b.WriteString(statusOkStyle.Render("✓ "+m.status) + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return appStyle.Render(b.String())
}

// RunCompose starts the compose form and returns how many messages were
// sent before the user quit.
func RunCompose(ctx context.Context, robot string, send SendFunc) (int, error) {
	p := tea.NewProgram(NewCompose(ctx, robot, send), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return 0, err
	}
	return final.(ComposeModel).Sent(), nil
}
