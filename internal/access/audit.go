package access

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/yanizio/sermonario/internal/metrics"
	"github.com/yanizio/sermonario/internal/requestinfo"
	"github.com/yanizio/sermonario/internal/signature"
)

// Method names how an access decision was reached.
type Method string

const (
	MethodToken   Method = "token"
	MethodEmail   Method = "email"
	MethodSession Method = "session"
)

// Reason is the internal cause of a decision.  It is logged and counted but
// never sent to the client.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNotFound     Reason = "not_found"
	ReasonInactive     Reason = "inactive"
	ReasonStorageError Reason = "storage_error"
	ReasonBadSession   Reason = "bad_session"
	ReasonNoSession    Reason = "no_session"
)

const pseudonymInfo = "sermonario audit email pseudonym v1"

// Auditor writes one structured event per access decision.  Emails are
// replaced by a keyed pseudonym so logs can be correlated without holding
// addresses.
type Auditor struct {
	log *zap.Logger
	key []byte
}

// NewAuditor derives the pseudonym key from the session key with HKDF.
func NewAuditor(log *zap.Logger, sessionKey signature.Key) (*Auditor, error) {
	if !sessionKey.Valid() {
		return nil, signature.ErrMissingSecret
	}
	if log == nil {
		log = zap.L()
	}
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, sessionKey.Bytes(), nil, []byte(pseudonymInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive audit key: %w", err)
	}
	return &Auditor{log: log.Named("audit"), key: key}, nil
}

// Pseudonym returns a stable 16-hex-character tag for email.
func (a *Auditor) Pseudonym(email string) string {
	if email == "" || len(a.key) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

func (a *Auditor) record(ctx context.Context, m Method, reason Reason, email string) {
	outcome := "allow"
	if reason != ReasonNone {
		outcome = "deny"
		metrics.AuthDenialsTotal.WithLabelValues(string(reason)).Inc()
	}
	metrics.AuthDecisionsTotal.WithLabelValues(string(m), outcome).Inc()

	fields := []zap.Field{
		zap.String("method", string(m)),
		zap.String("outcome", outcome),
	}
	if reason != ReasonNone {
		fields = append(fields, zap.String("reason", string(reason)))
	}
	if p := a.Pseudonym(email); p != "" {
		fields = append(fields, zap.String("subject", p))
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		fields = append(fields,
			zap.Stringer("ip", info.Geo.IP),
			zap.String("country", info.Geo.CountryISO),
			zap.String("browser", info.UA.Browser),
			zap.String("device", info.UA.Device),
			zap.Bool("bot", info.UA.IsBot),
		)
	}
	a.log.Info("auth decision", fields...)
}
