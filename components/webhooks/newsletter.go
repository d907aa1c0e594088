package webhooks

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/httpx"
	"github.com/yanizio/sermonario/internal/message"
	"github.com/yanizio/sermonario/internal/metrics"
)

// newsletterLimit caps concurrent sends of one broadcast.
const newsletterLimit = 4

// Newsletter is the broadcast body.  Message is plain text.
type Newsletter struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=20000"`
}

type newsletterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Results message.Report `json:"results"`
}

type subscriber struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type audienceResponse struct {
	TotalActiveUsers int          `json:"totalActiveUsers"`
	Users            []subscriber `json:"users"`
}

// handleNewsletter emails every active account and reports per-recipient
// results.  Unlike sale and refund notices, the caller waits for the sends.
func (c *Component) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var nl Newsletter
	if err := httpx.DecodeJSON(w, r, &nl); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(eventNewsletter, "invalid").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	nl.Subject = strings.TrimSpace(nl.Subject)
	nl.Message = strings.TrimSpace(nl.Message)
	if err := c.validate.Struct(nl); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(eventNewsletter, "invalid").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "subject and message are required")
		return
	}
	if c.email == nil {
		metrics.WebhookEventsTotal.WithLabelValues(eventNewsletter, "error").Inc()
		httpx.WriteError(w, http.StatusServiceUnavailable, "email channel not configured")
		return
	}

	active, err := c.tokens.ListActive(r.Context())
	if err != nil {
		c.fail(w, eventNewsletter, err)
		return
	}

	batch := make([]message.Delivery, 0, len(active))
	for _, rec := range active {
		batch = append(batch, message.Delivery{Via: c.email, Msg: message.Message{
			To:      rec.Email,
			Subject: nl.Subject,
			Text:    greeting(rec.Name) + nl.Message + "\n",
		}})
	}
	rep := c.dispatch.Deliver(r.Context(), newsletterLimit, batch...)

	metrics.WebhookEventsTotal.WithLabelValues(eventNewsletter, "ok").Inc()
	c.log.Info("newsletter sent",
		zap.Int("total", rep.Total), zap.Int("sent", rep.Sent), zap.Int("failed", rep.Failed))

	httpx.WriteJSON(w, http.StatusOK, newsletterResponse{
		Success: true,
		Message: fmt.Sprintf("Newsletter enviada! %d emails enviados com sucesso, %d falharam.", rep.Sent, rep.Failed),
		Results: rep,
	})
}

// handleAudience lists the accounts a broadcast would reach.
func (c *Component) handleAudience(w http.ResponseWriter, r *http.Request) {
	active, err := c.tokens.ListActive(r.Context())
	if err != nil {
		c.fail(w, eventNewsletter, err)
		return
	}
	users := make([]subscriber, 0, len(active))
	for _, rec := range active {
		users = append(users, subscriber{Email: rec.Email, Name: rec.Name, CreatedAt: rec.CreatedAt})
	}
	httpx.WriteJSON(w, http.StatusOK, audienceResponse{TotalActiveUsers: len(users), Users: users})
}
