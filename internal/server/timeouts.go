// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
//   • ReadTimeout        – abort slow-loris bodies
//   • ReadHeaderTimeout  – abort slow-loris headers (5 s)
//   • WriteTimeout       – cap total response time
//   • IdleTimeout        – close keep-alives on idle clients
//
// Zero values in config.HTTP fall back to the constants below so tests and
// ad-hoc tools can pass an empty section.

package server

import (
	"net/http"
	"time"

	"github.com/yanizio/sermonario/internal/config"
)

const (
	defaultRead       = 10 * time.Second
	defaultReadHeader = 5 * time.Second
	defaultWrite      = 30 * time.Second
	defaultIdle       = 120 * time.Second
)

// New constructs an *http.Server for handler using the timeouts in c.
func New(c config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              c.ListenAddr,
		Handler:           handler,
		ReadTimeout:       orDefault(c.ReadTimeout, defaultRead),
		ReadHeaderTimeout: defaultReadHeader,
		WriteTimeout:      orDefault(c.WriteTimeout, defaultWrite),
		IdleTimeout:       orDefault(c.IdleTimeout, defaultIdle),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
