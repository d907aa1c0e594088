package message

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// ResendEmail sends transactional email through the Resend API.
type ResendEmail struct {
	hc      *retryablehttp.Client
	baseURL string
	apiKey  string
	from    string
}

// NewResendEmail builds the email channel.  from is the full sender,
// e.g. `Sermonário <contato@example.com>`.
func NewResendEmail(hc *retryablehttp.Client, baseURL, apiKey, from string) *ResendEmail {
	return &ResendEmail{
		hc:      hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
	}
}

func (*ResendEmail) Channel() string { return "email" }

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send posts one email.
func (e *ResendEmail) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrRecipient
	}
	body, err := json.Marshal(resendPayload{
		From:    e.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}
	req, err := jsonRequest(ctx, e.baseURL+"/emails", body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	return post(e.hc, req)
}
