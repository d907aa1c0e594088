// internal/message/message.go
//
// Outbound notifications.
//
// Context
//   Sale and refund events notify the buyer by email and the operator by
//   WhatsApp.  Delivery is fire-and-forget: the Dispatcher runs sends in the
//   background under their own deadline, logs and counts failures, and never
//   reports them to the caller.  A failed email must not fail a webhook.
//
//   Channels implement Notifier.  ResendEmail talks to the Resend HTTP API
//   and ZAPIWhatsApp to a Z-API instance; both share one retrying client.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Message is a channel-neutral payload.  Subject is ignored by channels that
// have no subject line.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Notifier delivers one message over one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// ErrRecipient is returned when a message has no usable recipient.
var ErrRecipient = errors.New("message: missing recipient")

// NewHTTPClient returns the retrying client used by every channel: three
// retries with exponential backoff, logging through zap.
func NewHTTPClient(timeout time.Duration, log *zap.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = zapLeveled{log.Named("notify").Sugar()}
	return c
}

// zapLeveled adapts a sugared logger to retryablehttp.LeveledLogger.
type zapLeveled struct{ s *zap.SugaredLogger }

func (z zapLeveled) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }
func (z zapLeveled) Info(msg string, kv ...interface{})  { z.s.Debugw(msg, kv...) }
func (z zapLeveled) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z zapLeveled) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }

// post sends a prepared request and maps non-2xx answers to errors.
func post(hc *retryablehttp.Client, req *retryablehttp.Request) error {
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Redacted(), resp.StatusCode, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func jsonRequest(ctx context.Context, url string, body []byte) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
