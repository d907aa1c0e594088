// components/webhooks/webhooks.go
//
// Account lifecycle webhooks.
//
//	POST /api/webhooks/sales    -> new active account + welcome email
//	POST /api/webhooks/refunds  -> account marked refunded
//	POST /api/newsletter        -> email broadcast to active accounts
//	GET  /api/newsletter        -> broadcast audience
//
// Callers authenticate with the shared secret in X-Webhook-Secret.  The
// sale and refund body is provider-neutral:
//
//	{"customer": {"name": "...", "email": "..."}, "amount": 19.90}
//
// Sale and refund notifications go through the Dispatcher and never affect
// the response.
//
//------------------------------------------------------------------------------

package webhooks

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/httpx"
	"github.com/yanizio/sermonario/internal/message"
	"github.com/yanizio/sermonario/internal/metrics"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Webhook-Secret"

const (
	eventSale       = "sale"
	eventRefund     = "refund"
	eventNewsletter = "newsletter"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component ingests sale and refund events and sends newsletters.
type Component struct {
	secret     []byte
	publicURL  string
	alertPhone string
	tokens     accesstoken.Store
	dispatch   *message.Dispatcher
	email      message.Notifier
	whatsapp   message.Notifier
	validate   *validator.Validate
	log        *zap.Logger
}

// Event is the normalised webhook body.
type Event struct {
	Customer struct {
		Name  string `json:"name"  validate:"max=200"`
		Email string `json:"email" validate:"required,email,max=200"`
	} `json:"customer"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "webhooks" }

// Init captures the token store, notifier channels, and shared secret.
func (c *Component) Init(d component.Deps) error {
	if d.Config == nil || d.Tokens == nil || d.Dispatcher == nil {
		return errors.New("config, tokens, and dispatcher are required")
	}
	if d.Config.Webhooks.Secret == "" {
		return errors.New("webhooks.secret is empty")
	}
	c.secret = []byte(d.Config.Webhooks.Secret)
	c.publicURL = strings.TrimRight(d.Config.HTTP.PublicURL, "/")
	c.alertPhone = d.Config.Notify.AlertPhone
	c.tokens = d.Tokens
	c.dispatch = d.Dispatcher
	c.email = d.Email
	c.whatsapp = d.WhatsApp
	c.validate = validator.New(validator.WithRequiredStructEnabled())
	c.log = d.Log
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("webhooks")
	return nil
}

// Routes registers the webhook and newsletter endpoints behind the secret
// check.
func (c *Component) Routes(r chi.Router) {
	r.Route("/api/webhooks", func(wh chi.Router) {
		wh.Use(c.requireSecret)
		wh.Post("/sales", c.handleSale)
		wh.Post("/refunds", c.handleRefund)
	})
	r.Route("/api/newsletter", func(nl chi.Router) {
		nl.Use(c.requireSecret)
		nl.Get("/", c.handleAudience)
		nl.Post("/", c.handleNewsletter)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(SecretHeader))
		if subtle.ConstantTimeCompare(got, c.secret) != 1 {
			metrics.WebhookEventsTotal.WithLabelValues(eventName(r), "rejected").Inc()
			c.log.Warn("webhook secret mismatch", zap.String("path", r.URL.Path))
			httpx.WriteError(w, http.StatusUnauthorized, "invalid secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Component) handleSale(w http.ResponseWriter, r *http.Request) {
	ev, ok := c.decode(w, r, eventSale)
	if !ok {
		return
	}
	rec := accesstoken.Record{Name: ev.Customer.Name, Email: ev.Customer.Email}
	err := c.tokens.Insert(r.Context(), &rec)
	switch {
	case errors.Is(err, accesstoken.ErrDuplicateEmail):
		metrics.WebhookEventsTotal.WithLabelValues(eventSale, "duplicate").Inc()
		httpx.WriteError(w, http.StatusConflict, "account already exists")
		return
	case err != nil:
		c.fail(w, eventSale, err)
		return
	}
	metrics.WebhookEventsTotal.WithLabelValues(eventSale, "ok").Inc()
	c.log.Info("account created", zap.String("account", rec.ID))

	link := c.publicURL + "/access/" + rec.Token
	c.dispatch.Dispatch(
		message.Delivery{Via: c.email, Msg: message.Message{
			To:      rec.Email,
			Subject: "Acesse seu Sermonário!",
			Text:    greeting(rec.Name) + "Seu acesso está liberado. Entre pelo link:\n\n" + link + "\n",
		}},
		c.alert(fmt.Sprintf("Nova venda: %s <%s> R$ %.2f", rec.Name, rec.Email, ev.Amount)),
	)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (c *Component) handleRefund(w http.ResponseWriter, r *http.Request) {
	ev, ok := c.decode(w, r, eventRefund)
	if !ok {
		return
	}
	err := c.tokens.UpdateStatus(r.Context(), ev.Customer.Email, accesstoken.StatusRefunded)
	switch {
	case errors.Is(err, accesstoken.ErrNotFound):
		metrics.WebhookEventsTotal.WithLabelValues(eventRefund, "not_found").Inc()
		httpx.WriteError(w, http.StatusNotFound, "account not found")
		return
	case err != nil:
		c.fail(w, eventRefund, err)
		return
	}
	metrics.WebhookEventsTotal.WithLabelValues(eventRefund, "ok").Inc()

	email := accesstoken.NormaliseEmail(ev.Customer.Email)
	c.dispatch.Dispatch(
		message.Delivery{Via: c.email, Msg: message.Message{
			To:      email,
			Subject: "Seu reembolso foi processado",
			Text:    greeting(ev.Customer.Name) + "Confirmamos o reembolso da sua compra. O acesso ao Sermonário foi encerrado.\n",
		}},
		c.alert(fmt.Sprintf("Reembolso: %s <%s> R$ %.2f", ev.Customer.Name, email, ev.Amount)),
	)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (c *Component) decode(w http.ResponseWriter, r *http.Request, event string) (Event, bool) {
	var ev Event
	if err := httpx.DecodeJSON(w, r, &ev); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(event, "invalid").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return Event{}, false
	}
	ev.Customer.Name = strings.TrimSpace(ev.Customer.Name)
	ev.Customer.Email = strings.TrimSpace(ev.Customer.Email)
	if err := c.validate.Struct(ev); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(event, "invalid").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "customer email is required")
		return Event{}, false
	}
	return ev, true
}

func (c *Component) fail(w http.ResponseWriter, event string, err error) {
	metrics.WebhookEventsTotal.WithLabelValues(event, "error").Inc()
	c.log.Error("webhook storage", zap.String("event", event), zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, "internal error")
}

// alert targets the operator phone; it is skipped when none is configured.
func (c *Component) alert(text string) message.Delivery {
	if c.alertPhone == "" {
		return message.Delivery{}
	}
	return message.Delivery{Via: c.whatsapp, Msg: message.Message{To: c.alertPhone, Text: text}}
}

func greeting(name string) string {
	if name == "" {
		return "Olá!\n\n"
	}
	return "Olá, " + name + "!\n\n"
}

func eventName(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/newsletter"):
		return eventNewsletter
	case strings.HasSuffix(r.URL.Path, "/refunds"):
		return eventRefund
	}
	return eventSale
}
