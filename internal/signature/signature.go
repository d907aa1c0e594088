// internal/signature/signature.go
//
// Keyed message authentication for session cookies.
//
// Context
// -------
// Every session cookie carries an HMAC-SHA256 digest over its payload.  The
// key comes from process configuration and is handed to this package once,
// at construction time.  An empty key is a configuration error: NewKey
// refuses it, so no caller can ever sign with a default or zero key.
//
// Verification recomputes the digest and compares in constant time.  A
// length mismatch is an ordinary verification failure, not a panic.
//
//------------------------------------------------------------------------------

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// ErrMissingSecret is returned by NewKey when the configured secret is empty.
var ErrMissingSecret = errors.New("signature: session secret is not configured")

// Key is an HMAC key.  The zero value is invalid; build one with NewKey.
type Key struct {
	secret []byte
}

// NewKey wraps secret.  It fails fast on an empty secret.
func NewKey(secret string) (Key, error) {
	if secret == "" {
		return Key{}, ErrMissingSecret
	}
	return Key{secret: []byte(secret)}, nil
}

// MustKey is NewKey for tests and static wiring; it panics on error.
func MustKey(secret string) Key {
	k, err := NewKey(secret)
	if err != nil {
		panic(err)
	}
	return k
}

// Valid reports whether k was built by NewKey.
func (k Key) Valid() bool { return len(k.secret) > 0 }

// Bytes returns a copy of the raw key material.
func (k Key) Bytes() []byte {
	out := make([]byte, len(k.secret))
	copy(out, k.secret)
	return out
}

// Sign returns HMAC-SHA256(key, payload).  It panics on an invalid key, which
// can only happen when a caller bypasses NewKey.
func (k Key) Sign(payload []byte) []byte {
	if !k.Valid() {
		panic(ErrMissingSecret)
	}
	mac := hmac.New(sha256.New, k.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify recomputes the digest over payload and compares it with digest.
func (k Key) Verify(payload, digest []byte) bool {
	if !k.Valid() || len(digest) != Size {
		return false
	}
	return hmac.Equal(k.Sign(payload), digest)
}

// Equal compares two encoded signatures in constant time.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
