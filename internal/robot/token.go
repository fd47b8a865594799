package robot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Credential string prefixes accepted by FromToken.
const (
	prefixDingTalk   = "dingtalk:"
	prefixWeChatWork = "wechatwork:"
	prefixWeCom      = "wecom:"
)

// FromToken builds a client from a provider-prefixed credential string:
//
//	dingtalk:<access_token>[?<sec_token>]
//	wechatwork:<key>
//	wecom:<key>
func FromToken(token string, opts ...Option) (*Client, error) {
	switch {
	case strings.HasPrefix(token, prefixDingTalk):
		access, sec, _ := strings.Cut(strings.TrimPrefix(token, prefixDingTalk), "?")
		// Anything after a second '?' is not part of the secret.
		sec, _, _ = strings.Cut(sec, "?")
		return New(access, sec, opts...), nil
	case strings.HasPrefix(token, prefixWeChatWork):
		return NewWeChatWork(strings.TrimPrefix(token, prefixWeChatWork), opts...), nil
	case strings.HasPrefix(token, prefixWeCom):
		return NewWeChatWork(strings.TrimPrefix(token, prefixWeCom), opts...), nil
	default:
		return nil, newTokenFormatError(token)
	}
}

// ParseProvider maps a configuration type name to a Provider. Matching is
// case-insensitive; anything unrecognized means DingTalk.
func ParseProvider(name string) Provider {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wechat", "wechatwork", "wecom":
		return WeChatWork
	default:
		return DingTalk
	}
}

// Record is the on-disk form of a robot configuration.
type Record struct {
	Type              string `json:"type,omitempty" yaml:"type,omitempty"`
	DefaultWebhookURL string `json:"default_webhook_url,omitempty" yaml:"default_webhook_url,omitempty"`
	AccessToken       string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	SecToken          string `json:"sec_token,omitempty" yaml:"sec_token,omitempty"`
	DirectURL         string `json:"direct_url,omitempty" yaml:"direct_url,omitempty"`
}

// Config resolves r into a Config, filling in the provider default URL.
func (r Record) Config() Config {
	p := ParseProvider(r.Type)
	webhook := r.DefaultWebhookURL
	if webhook == "" {
		webhook = DefaultWebhookURL(p)
	}
	return Config{
		Provider:    p,
		WebhookURL:  webhook,
		AccessToken: r.AccessToken,
		SecToken:    r.SecToken,
		DirectURL:   r.DirectURL,
	}
}

// RecordOf is the inverse of Record.Config.
func RecordOf(c Config) Record {
	r := Record{
		Type:        c.Provider.String(),
		AccessToken: c.AccessToken,
		SecToken:    c.SecToken,
		DirectURL:   c.DirectURL,
	}
	if c.WebhookURL != DefaultWebhookURL(c.Provider) {
		r.DefaultWebhookURL = c.WebhookURL
	}
	return r
}

// FromRecord builds a client from a configuration record.
func FromRecord(r Record, opts ...Option) *Client {
	return NewClient(r.Config(), opts...)
}

// ParseJSON decodes a JSON configuration record. The document must be an
// object; values of unknown keys and non-string values are ignored.
func ParseJSON(data []byte) (Record, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrConfigFormat, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: expected a JSON object", ErrConfigFormat)
	}
	str := func(key string) string {
		s, _ := obj[key].(string)
		return s
	}
	return Record{
		Type:              str("type"),
		DefaultWebhookURL: str("default_webhook_url"),
		AccessToken:       str("access_token"),
		SecToken:          str("sec_token"),
		DirectURL:         str("direct_url"),
	}, nil
}

// FromJSON builds a client from a JSON configuration record:
//
//	{
//	    "type": "dingtalk",          // optional: dingtalk, wechat, wechatwork, wecom
//	    "default_webhook_url": "",   // optional
//	    "access_token": "<token>",
//	    "sec_token": "<secret>",     // optional
//	    "direct_url": ""             // optional
//	}
func FromJSON(data []byte, opts ...Option) (*Client, error) {
	r, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return FromRecord(r, opts...), nil
}
