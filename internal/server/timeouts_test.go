package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/sermonario/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	srv := New(config.HTTP{ListenAddr: ":8080"}, http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, defaultRead, srv.ReadTimeout)
	assert.Equal(t, defaultReadHeader, srv.ReadHeaderTimeout)
	assert.Equal(t, defaultWrite, srv.WriteTimeout)
	assert.Equal(t, defaultIdle, srv.IdleTimeout)
}

func TestNew_FromConfig(t *testing.T) {
	srv := New(config.HTTP{
		ListenAddr:   "127.0.0.1:9000",
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 4 * time.Second,
		IdleTimeout:  5 * time.Second,
	}, http.NotFoundHandler())

	assert.Equal(t, 3*time.Second, srv.ReadTimeout)
	assert.Equal(t, 4*time.Second, srv.WriteTimeout)
	assert.Equal(t, 5*time.Second, srv.IdleTimeout)
}
