// internal/session/session.go
//
// Cookie transport for signed sessions.
//
// Context
// -------
// The store binds the codec to the HTTP cycle without depending on any
// router.  The core surface works on raw strings:
//
//	Establish(rec) -> *http.Cookie   (caller emits cookie.String())
//	Read(rawCookieHeader) -> Record, ok
//	Clear() -> *http.Cookie          (Max-Age=0)
//	Rotate(rec) -> Record, *http.Cookie
//
// Login, Current, Logout, and Refresh are thin net/http conveniences on top.
//
// The session is stateless.  Nothing here touches storage; account status
// is re-checked by the access resolver on every privileged request.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the wire name of the session cookie.
	DefaultCookieName = "sid"

	// DefaultMaxAge is the cookie lifetime (Max-Age=604800).
	DefaultMaxAge = 7 * 24 * time.Hour

	idBytes = 16
)

// Options tunes the cookie.  Zero fields take the defaults above, so the
// zero value always yields a Secure cookie.
type Options struct {
	CookieName string
	MaxAge     time.Duration
	Insecure   bool // drop Secure; plain-http development only
}

// Store writes and reads session cookies.  It is safe for concurrent use.
type Store struct {
	codec  *Codec
	name   string
	maxAge int
	secure bool
}

// NewStore builds a store around codec.
func NewStore(codec *Codec, opts Options) *Store {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	return &Store{
		codec:  codec,
		name:   opts.CookieName,
		maxAge: int(opts.MaxAge / time.Second),
		secure: !opts.Insecure,
	}
}

// CookieName returns the configured cookie name.
func (s *Store) CookieName() string { return s.name }

// NewID returns a fresh random session id (32 hex characters).
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Establish encodes rec and returns the Set-Cookie value for it.
func (s *Store) Establish(rec Record) (*http.Cookie, error) {
	value, err := s.codec.Encode(rec)
	if err != nil {
		return nil, err
	}
	return s.cookie(value, s.maxAge), nil
}

// Read extracts and verifies the session from a raw Cookie header.
func (s *Store) Read(rawCookieHeader string) (Record, bool) {
	if rawCookieHeader == "" {
		return Record{}, false
	}
	r := http.Request{Header: http.Header{"Cookie": {rawCookieHeader}}}
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return Record{}, false
	}
	return s.codec.Decode(c.Value)
}

// Clear returns a cookie that expires the session immediately.  Clearing an
// absent session is harmless.
func (s *Store) Clear() *http.Cookie {
	// MaxAge < 0 serializes as Max-Age=0.
	return s.cookie("", -1)
}

// Rotate re-issues rec under a fresh sid, keeping email and name.
func (s *Store) Rotate(rec Record) (Record, *http.Cookie, error) {
	sid, err := NewID()
	if err != nil {
		return Record{}, nil, err
	}
	rec.SID = sid
	c, err := s.Establish(rec)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, c, nil
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

/*──────────────────────────── net/http helpers ───────────────────────────*/

// Login starts a new session for email and writes it to w.
func (s *Store) Login(w http.ResponseWriter, email, name string) (Record, error) {
	sid, err := NewID()
	if err != nil {
		return Record{}, err
	}
	rec := Record{SID: sid, Email: email, Name: name}
	c, err := s.Establish(rec)
	if err != nil {
		return Record{}, err
	}
	http.SetCookie(w, c)
	return rec, nil
}

// Current returns the verified session carried by r, if any.
func (s *Store) Current(r *http.Request) (Record, bool) {
	return s.Read(strings.Join(r.Header.Values("Cookie"), "; "))
}

// Logout expires the session cookie on w.
func (s *Store) Logout(w http.ResponseWriter) {
	http.SetCookie(w, s.Clear())
}

// Refresh rotates rec and writes the new cookie to w.
func (s *Store) Refresh(w http.ResponseWriter, rec Record) (Record, error) {
	next, c, err := s.Rotate(rec)
	if err != nil {
		return Record{}, err
	}
	http.SetCookie(w, c)
	return next, nil
}
