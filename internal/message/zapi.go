package message

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// countryCode is prepended to numbers that lack it.
const countryCode = "55"

// ZAPIWhatsApp sends WhatsApp text messages through a Z-API instance.
type ZAPIWhatsApp struct {
	hc          *retryablehttp.Client
	endpoint    string
	clientToken string
}

// NewZAPIWhatsApp builds the channel for one instance.
func NewZAPIWhatsApp(hc *retryablehttp.Client, baseURL, instance, token, clientToken string) *ZAPIWhatsApp {
	endpoint := fmt.Sprintf("%s/instances/%s/token/%s/send-text",
		strings.TrimRight(baseURL, "/"), url.PathEscape(instance), url.PathEscape(token))
	return &ZAPIWhatsApp{hc: hc, endpoint: endpoint, clientToken: clientToken}
}

func (*ZAPIWhatsApp) Channel() string { return "whatsapp" }

// FormatPhone keeps digits only and adds the Brazilian country code when
// missing.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" || strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + digits
}

// Send posts one text message.
func (z *ZAPIWhatsApp) Send(ctx context.Context, msg Message) error {
	phone := FormatPhone(msg.To)
	if phone == "" {
		return ErrRecipient
	}
	body, err := json.Marshal(map[string]string{"phone": phone, "message": msg.Text})
	if err != nil {
		return err
	}
	req, err := jsonRequest(ctx, z.endpoint, body)
	if err != nil {
		return err
	}
	if z.clientToken != "" {
		req.Header.Set("client-token", z.clientToken)
	}
	return post(z.hc, req)
}
