// Package signer builds authenticated robot webhook URLs.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrSigning is returned when a signature cannot be computed.
var ErrSigning = errors.New("signer: signing failed")

// Provider selects the query parameter that carries the access token.
type Provider int

const (
	DingTalk Provider = iota
	WeChatWork
)

// String returns the lower-case provider name used in configuration files.
func (p Provider) String() string {
	switch p {
	case WeChatWork:
		return "wechatwork"
	default:
		return "dingtalk"
	}
}

// TokenParam returns the name of the query parameter holding the token.
func (p Provider) TokenParam() string {
	if p == WeChatWork {
		return "key"
	}
	return "access_token"
}

// Endpoint is everything needed to address one robot.
type Endpoint struct {
	Provider   Provider
	WebhookURL string
	Token      string
	Secret     string
	// DirectURL, when set, is used as is.
	DirectURL string
}

// URL returns the destination URL for a send at time now.
//
// A direct URL is returned verbatim. Otherwise the token parameter is
// joined to the webhook URL and, when a secret is configured, the
// timestamp and signature parameters are appended.
func URL(e Endpoint, now time.Time) (string, error) {
	if e.DirectURL != "" {
		return e.DirectURL, nil
	}

	var b strings.Builder
	b.Grow(len(e.WebhookURL) + len(e.Token) + 128)
	b.WriteString(e.WebhookURL)
	b.WriteString(joiner(e.WebhookURL))
	b.WriteString(e.Provider.TokenParam())
	b.WriteByte('=')
	b.WriteString(escape(e.Token))

	if e.Secret != "" {
		ts := Timestamp(now)
		sig, err := Sign(e.Secret, ts)
		if err != nil {
			return "", err
		}
		b.WriteString("&timestamp=")
		b.WriteString(ts)
		b.WriteString("&sign=")
		b.WriteString(escape(sig))
	}
	return b.String(), nil
}

// joiner returns what must be inserted between base and the first
// appended query parameter.
func joiner(base string) string {
	switch {
	case strings.HasSuffix(base, "?"):
		return ""
	case strings.Contains(base, "?"):
		if strings.HasSuffix(base, "&") {
			return ""
		}
		return "&"
	default:
		return "?"
	}
}

// Timestamp formats t as milliseconds since the Unix epoch.
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Sign returns the base64 HMAC-SHA256 of "timestamp\nsecret" keyed with
// secret. The result is not URL-escaped.
func Sign(secret, timestamp string) (string, error) {
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(timestamp + "\n" + secret)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// escape percent-encodes everything but unreserved characters. Spaces
// become %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
