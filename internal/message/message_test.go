package message

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		kind Kind
		want Body
	}{
		{KindText, Text{}},
		{KindMarkdown, Markdown{}},
		{KindLink, Link{}},
		{KindActionCard, ActionCard{}},
		{KindFeedCard, FeedCard{}},
		{Kind("bogus"), Text{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := New(tt.kind)
			if diff := cmp.Diff(tt.want, m.Body()); diff != "" {
				t.Fatalf("New(%q) body mismatch (-want +got):\n%s", tt.kind, diff)
			}
			if m.HasMention() {
				t.Fatal("new message should not carry a mention block")
			}
		})
	}
}

func TestZeroMessageIsText(t *testing.T) {
	var m Message
	if m.Kind() != KindText {
		t.Fatalf("zero message kind = %q, want text", m.Kind())
	}
}

func TestSettersAreImmutable(t *testing.T) {
	base := NewActionCard("title", "text").AddButton(Button{Title: "a", ActionURL: "https://a"})
	next := base.AddButton(Button{Title: "b", ActionURL: "https://b"}).HideAvatar().Landscape()

	baseCard := base.Body().(ActionCard)
	if len(baseCard.Buttons) != 1 {
		t.Fatalf("base buttons = %d, want 1", len(baseCard.Buttons))
	}
	if baseCard.HideAvatar || baseCard.Landscape {
		t.Fatal("base card flags changed by setters on a derived message")
	}

	nextCard := next.Body().(ActionCard)
	if len(nextCard.Buttons) != 2 || !nextCard.HideAvatar || !nextCard.Landscape {
		t.Fatalf("unexpected derived card: %+v", nextCard)
	}
}

func TestSingleButtonCopy(t *testing.T) {
	withSingle := NewActionCard("t", "x").SingleButton(Button{Title: "one", ActionURL: "https://one"})
	replaced := withSingle.SingleButton(Button{Title: "two", ActionURL: "https://two"})

	if got := withSingle.Body().(ActionCard).Single.Title; got != "one" {
		t.Fatalf("original single button = %q, want one", got)
	}
	if got := replaced.Body().(ActionCard).Single.Title; got != "two" {
		t.Fatalf("replaced single button = %q, want two", got)
	}
}

func TestSettersForOtherVariantsAreNoops(t *testing.T) {
	m := NewText("hello").
		Markdown("t", "x").
		Link("a", "b", "c", "d").
		HideAvatar().
		Landscape().
		AddButton(Button{Title: "b"}).
		SingleButton(Button{Title: "s"}).
		AddFeedLinkDetail("f", "u", "p")

	if diff := cmp.Diff(Body(Text{Content: "hello"}), m.Body()); diff != "" {
		t.Fatalf("body changed by foreign setters (-want +got):\n%s", diff)
	}

	md := NewMarkdown("t", "x").Text("ignored")
	if diff := cmp.Diff(Body(Markdown{Title: "t", Text: "x"}), md.Body()); diff != "" {
		t.Fatalf("markdown body changed (-want +got):\n%s", diff)
	}
}

func TestFeedCardLinks(t *testing.T) {
	base := NewFeedCard().AddFeedLinkDetail("one", "https://1", "https://1.png")
	m := base.AddFeedLink(FeedLink{Title: "two", MessageURL: "https://2", PicURL: "https://2.png"})

	want := FeedCard{Links: []FeedLink{
		{Title: "one", MessageURL: "https://1", PicURL: "https://1.png"},
		{Title: "two", MessageURL: "https://2", PicURL: "https://2.png"},
	}}
	if diff := cmp.Diff(Body(want), m.Body()); diff != "" {
		t.Fatalf("feed card mismatch (-want +got):\n%s", diff)
	}
	if n := len(base.Body().(FeedCard).Links); n != 1 {
		t.Fatalf("base feed card has %d links, want 1", n)
	}
}

func TestMentions(t *testing.T) {
	m := NewText("hi").AtMobiles("138", "139").AtMobiles("138")
	if diff := cmp.Diff([]string{"138", "139", "138"}, m.Mobiles()); diff != "" {
		t.Fatalf("mobiles mismatch (-want +got):\n%s", diff)
	}
	if m.IsAtAll() {
		t.Fatal("AtAll should not be set")
	}
	if !m.HasMention() {
		t.Fatal("expected mention block")
	}

	all := NewText("hi").AtAll()
	if !all.IsAtAll() || !all.HasMention() {
		t.Fatal("expected at-all mention")
	}

	// Mobiles returns a copy.
	mobiles := m.Mobiles()
	mobiles[0] = "changed"
	if m.Mobiles()[0] != "138" {
		t.Fatal("Mobiles leaked internal slice")
	}
}
