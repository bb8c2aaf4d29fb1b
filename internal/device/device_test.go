package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	for _, ok := range []string{"abc", " dev-1 ", "fp-0123abcd", "a.b_c:d"} {
		_, err := Sanitize(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "   ", "has space", "semi;colon", "ñandú", strings.Repeat("x", MaxLen+1)} {
		_, err := Sanitize(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}

func TestFromRequest_Precedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderDeviceID, "hdr-1")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-1"})
	id, src := FromRequest(r, "10.0.0.1")
	assert.Equal(t, "hdr-1", id)
	assert.Equal(t, SourceHeader, src)

	r.Header.Set(HeaderDeviceID, "bad value!")
	id, src = FromRequest(r, "10.0.0.1")
	assert.Equal(t, "cookie-1", id)
	assert.Equal(t, SourceCookie, src)
}

func TestFromRequest_FingerprintStable(t *testing.T) {
	mk := func(ua string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.7:5555"
		r.Header.Set("User-Agent", ua)
		r.Header.Set("Accept-Language", "es-ES")
		return r
	}
	a, src := FromRequest(mk("Firefox"), "")
	b, _ := FromRequest(mk("Firefox"), "")
	c, _ := FromRequest(mk("Chrome"), "")
	assert.Equal(t, SourceFingerprint, src)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "fp-"))
	assert.Len(t, a, 35)
	assert.Equal(t, Fingerprint("Firefox", "es-ES", "192.0.2.7"), a)
	_, err := Sanitize(a)
	assert.NoError(t, err)
}

func TestCookie(t *testing.T) {
	c := Cookie("dev", 48*time.Hour, true)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "dev", c.Value)
	assert.Equal(t, 172800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
}

func TestFileResolver_CreatesThenReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device-id")
	r := FileResolver{Path: path}

	first, err := r.ResolveDeviceID(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := r.ResolveDeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A corrupted file is replaced.
	require.NoError(t, os.WriteFile(path, []byte("not valid!"), 0o600))
	third, err := r.ResolveDeviceID(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}
