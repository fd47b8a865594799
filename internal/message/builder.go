package message

// Setters below use value receivers and return the updated copy. Setters
// for a variant other than the active one return m unchanged.

// Text sets the content of a text message.
func (m Message) Text(content string) Message {
	if _, ok := m.Body().(Text); ok {
		m.body = Text{Content: content}
	}
	return m
}

// Markdown sets the title and body of a markdown message.
func (m Message) Markdown(title, text string) Message {
	if _, ok := m.Body().(Markdown); ok {
		m.body = Markdown{Title: title, Text: text}
	}
	return m
}

// Link sets all fields of a link message.
func (m Message) Link(title, text, picURL, messageURL string) Message {
	if _, ok := m.Body().(Link); ok {
		m.body = Link{Title: title, Text: text, PicURL: picURL, MessageURL: messageURL}
	}
	return m
}

// ShowAvatar shows the sender avatar on an action card. This is the default.
func (m Message) ShowAvatar() Message {
	return m.withCard(func(c *ActionCard) { c.HideAvatar = false })
}

// HideAvatar hides the sender avatar on an action card.
func (m Message) HideAvatar() Message {
	return m.withCard(func(c *ActionCard) { c.HideAvatar = true })
}

// Vertical stacks action card buttons vertically. This is the default.
func (m Message) Vertical() Message {
	return m.withCard(func(c *ActionCard) { c.Landscape = false })
}

// Landscape lays action card buttons out horizontally.
func (m Message) Landscape() Message {
	return m.withCard(func(c *ActionCard) { c.Landscape = true })
}

// SingleButton sets the single button of an action card. A single button
// takes precedence over any buttons added with AddButton.
func (m Message) SingleButton(b Button) Message {
	return m.withCard(func(c *ActionCard) { c.Single = &b })
}

// AddButton appends a button to an action card.
func (m Message) AddButton(b Button) Message {
	return m.withCard(func(c *ActionCard) { c.Buttons = append(c.Buttons, b) })
}

// AddFeedLink appends a link to a feed card.
func (m Message) AddFeedLink(l FeedLink) Message {
	fc, ok := m.Body().(FeedCard)
	if !ok {
		return m
	}
	links := make([]FeedLink, 0, len(fc.Links)+1)
	links = append(links, fc.Links...)
	m.body = FeedCard{Links: append(links, l)}
	return m
}

// AddFeedLinkDetail appends a link built from its parts to a feed card.
func (m Message) AddFeedLinkDetail(title, messageURL, picURL string) Message {
	return m.AddFeedLink(FeedLink{Title: title, MessageURL: messageURL, PicURL: picURL})
}

// AtAll mentions everyone in the chat.
func (m Message) AtAll() Message {
	m.atAll = true
	return m
}

// AtMobiles appends mobile numbers to mention. Order is kept and duplicates
// are not removed.
func (m Message) AtMobiles(mobiles ...string) Message {
	if len(mobiles) == 0 {
		return m
	}
	at := make([]string, 0, len(m.atMobiles)+len(mobiles))
	at = append(at, m.atMobiles...)
	m.atMobiles = append(at, mobiles...)
	return m
}

func (m Message) withCard(fn func(c *ActionCard)) Message {
	c, ok := m.Body().(ActionCard)
	if !ok {
		return m
	}
	// Copy the button slice and single button so the receiver stays untouched.
	c.Buttons = append([]Button(nil), c.Buttons...)
	if c.Single != nil {
		single := *c.Single
		c.Single = &single
	}
	fn(&c)
	m.body = c
	return m
}
