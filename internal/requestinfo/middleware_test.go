package requestinfo

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_AttachesInfo(t *testing.T) {
	var got *RequestInfo
	h := Enrich(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/access/serm_x", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, "/access/serm_x", got.Path)
	assert.Equal(t, "pt-br", got.PrimaryLang)
	assert.Equal(t, "203.0.113.9", got.Geo.IP.String())
	assert.True(t, got.UA.IsBot)
	assert.False(t, got.Timestamp.IsZero())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(r).String())

	r.Header.Set("X-Real-Ip", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(r).String())

	r.Header.Set("X-Forwarded-For", "garbage, 203.0.113.4")
	assert.Equal(t, "203.0.113.4", clientIP(r).String())
}

func TestPrimaryLang(t *testing.T) {
	assert.Equal(t, "", primaryLang(""))
	assert.Equal(t, "en-us", primaryLang("en-US;q=0.9, pt"))
}

func TestFromContext_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(r.Context()))
}

func TestInitGeo(t *testing.T) {
	assert.NoError(t, InitGeo(""))
	assert.Error(t, InitGeo("/nonexistent/GeoLite2-City.mmdb"))
	assert.Equal(t, "192.0.2.1", lookupGeo(net.ParseIP("192.0.2.1")).IP.String())
	CloseGeo()
}
