package robot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"dingtalk/internal/message"
	"dingtalk/internal/payload"
	"dingtalk/internal/signer"
)

const (
	contentType = "application/json; charset=utf-8"

	// maxErrorBody bounds how much of a failed response is kept.
	maxErrorBody = 512
)

// Send delivers m. It returns nil only when the endpoint answers 200.
func (c *Client) Send(ctx context.Context, m message.Message) error {
	body, err := payload.Marshal(m)
	if err != nil {
		c.observe(ResultEncodeError, 0)
		return err
	}
	return c.SendJSON(ctx, body)
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, content string) error {
	return c.Send(ctx, message.NewText(content))
}

// SendMarkdown sends a markdown message.
func (c *Client) SendMarkdown(ctx context.Context, title, text string) error {
	return c.Send(ctx, message.NewMarkdown(title, text))
}

// SendLink sends a link message.
func (c *Client) SendLink(ctx context.Context, title, text, picURL, messageURL string) error {
	return c.Send(ctx, message.NewLink(title, text, picURL, messageURL))
}

// SendJSON posts a pre-encoded payload.
func (c *Client) SendJSON(ctx context.Context, body []byte) error {
	start := time.Now()

	target, err := c.SignedURL()
	if err != nil {
		c.observe(ResultSignError, time.Since(start))
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		c.observe(ResultTransportError, time.Since(start))
		return newTransportError(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.doer.Do(req)
	if err != nil {
		c.observe(ResultTransportError, time.Since(start))
		return newTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.observe(ResultDeliveryError, time.Since(start))
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	c.observe(ResultSuccess, time.Since(start))
	return nil
}

func (c *Client) observe(result string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveSend(c.cfg.Provider, result, elapsed)
	}
}

// Result classifies err into one of the Result* values.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrDelivery):
		return ResultDeliveryError
	case errors.Is(err, ErrTransport):
		return ResultTransportError
	case errors.Is(err, payload.ErrSerialization):
		return ResultEncodeError
	case errors.Is(err, signer.ErrSigning):
		return ResultSignError
	default:
		return ResultError
	}
}
