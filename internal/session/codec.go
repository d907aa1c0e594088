// internal/session/codec.go
//
// Signed session codec.
//
// Context
// -------
// A session travels as
//
//	base64url(JSON{sid,email,name?}) "." base64url(HMAC-SHA256(payload))
//
// Both segments use the unpadded URL alphabet.  Decoding is strict: trailing
// bits must be zero, no padding, no line breaks, no unknown JSON fields, and
// nothing after the JSON object.  Every failure collapses to (Record{}, false)
// so callers cannot branch on why a session was rejected.
//
//------------------------------------------------------------------------------

package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/yanizio/sermonario/internal/signature"
)

const separator = "."

var enc = base64.RawURLEncoding.Strict()

// ErrIncomplete is returned by Encode for a record lacking sid or email.
var ErrIncomplete = errors.New("session: record requires sid and email")

// Record is the client-held session payload.  It is never stored server-side.
type Record struct {
	SID   string `json:"sid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (r Record) complete() bool { return r.SID != "" && r.Email != "" }

// Codec signs and verifies session records under one key.
type Codec struct {
	key signature.Key
}

// NewCodec binds a codec to key.  An invalid key is rejected here so a
// misconfigured process fails at startup, not on the first request.
func NewCodec(key signature.Key) (*Codec, error) {
	if !key.Valid() {
		return nil, signature.ErrMissingSecret
	}
	return &Codec{key: key}, nil
}

// Encode serializes and signs r.
func (c *Codec) Encode(r Record) (string, error) {
	if !r.complete() {
		return "", ErrIncomplete
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sig := c.key.Sign(payload)
	return enc.EncodeToString(payload) + separator + enc.EncodeToString(sig), nil
}

// Decode verifies and parses raw.  ok is false for any malformed, tampered,
// or incomplete input.
func (c *Codec) Decode(raw string) (Record, bool) {
	body, sig, found := strings.Cut(raw, separator)
	if !found || body == "" || sig == "" || strings.Contains(sig, separator) {
		return Record{}, false
	}
	if strings.ContainsAny(raw, "\r\n") {
		return Record{}, false
	}

	payload, err := enc.DecodeString(body)
	if err != nil {
		return Record{}, false
	}
	want := enc.EncodeToString(c.key.Sign(payload))
	if !signature.Equal(want, sig) {
		return Record{}, false
	}

	var rec Record
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return Record{}, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Record{}, false
	}
	if !rec.complete() {
		return Record{}, false
	}
	return rec, true
}
