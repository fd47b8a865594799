// Package robot sends messages to DingTalk and WeChat Work webhook robots.
//
// A Client is immutable once constructed and safe for concurrent use. Each
// send serializes the message, computes the destination URL (signing it
// when a secret is configured) and issues one POST. Nothing is retried.
package robot

import (
	"net/http"
	"time"

	"dingtalk/internal/signer"
)

// Provider selects the robot flavour.
type Provider = signer.Provider

const (
	DingTalk   = signer.DingTalk
	WeChatWork = signer.WeChatWork
)

// Default webhook endpoints.
const (
	DefaultDingTalkURL   = "https://oapi.dingtalk.com/robot/send"
	DefaultWeChatWorkURL = "https://qyapi.weixin.qq.com/cgi-bin/webhook/send"
)

// DefaultWebhookURL returns the default endpoint of p.
func DefaultWebhookURL(p Provider) string {
	if p == WeChatWork {
		return DefaultWeChatWorkURL
	}
	return DefaultDingTalkURL
}

// Config addresses one robot. When DirectURL is set the other fields are
// ignored for URL construction.
type Config struct {
	Provider    Provider
	WebhookURL  string
	AccessToken string
	SecToken    string
	DirectURL   string
}

// Endpoint converts c to the signer's view of it.
func (c Config) Endpoint() signer.Endpoint {
	return signer.Endpoint{
		Provider:   c.Provider,
		WebhookURL: c.WebhookURL,
		Token:      c.AccessToken,
		Secret:     c.SecToken,
		DirectURL:  c.DirectURL,
	}
}

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer is told about every send attempt.
type Observer interface {
	ObserveSend(provider Provider, result string, elapsed time.Duration)
}

// Results reported to an Observer.
const (
	ResultSuccess        = "success"
	ResultEncodeError    = "encode_error"
	ResultSignError      = "sign_error"
	ResultTransportError = "transport_error"
	ResultDeliveryError  = "delivery_error"
	ResultError          = "error"
)

// Client sends messages to a single robot.
type Client struct {
	cfg      Config
	doer     Doer
	now      func() time.Time
	observer Observer
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient sets the transport used for sends.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithClock overrides the clock used for signature timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver registers an observer for send outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient returns a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		doer: &http.Client{Timeout: 10 * time.Second},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New returns a DingTalk client. secToken may be empty for unsigned robots.
func New(accessToken, secToken string, opts ...Option) *Client {
	return NewClient(Config{
		Provider:    DingTalk,
		WebhookURL:  DefaultDingTalkURL,
		AccessToken: accessToken,
		SecToken:    secToken,
	}, opts...)
}

// NewWeChatWork returns a WeChat Work client for the robot key.
func NewWeChatWork(key string, opts ...Option) *Client {
	return NewClient(Config{
		Provider:    WeChatWork,
		WebhookURL:  DefaultWeChatWorkURL,
		AccessToken: key,
	}, opts...)
}

// FromURL returns a client that posts to directURL as is. It is meant for
// outgoing robots whose URL is already authorized.
func FromURL(directURL string, opts ...Option) *Client {
	return NewClient(Config{DirectURL: directURL}, opts...)
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// WithWebhookURL returns a copy of c that posts to a different base URL.
func (c *Client) WithWebhookURL(webhookURL string) *Client {
	cp := *c
	cp.cfg.WebhookURL = webhookURL
	return &cp
}

// SignedURL returns the destination URL for a send made now.
func (c *Client) SignedURL() (string, error) {
	return signer.URL(c.cfg.Endpoint(), c.now())
}
