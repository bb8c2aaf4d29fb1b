// Package device derives the deduplication key for a respondent.
//
// Over HTTP the id comes from, in order: the X-Device-ID header, the
// survey_device cookie, or a fingerprint of request characteristics. The
// terminal client persists a random token in the user's config directory.
// Ids are a best-effort dedup key, never a credential.
package device

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// HeaderDeviceID lets native or SPA clients send their own stable id.
	HeaderDeviceID = "X-Device-ID"
	// CookieName stores the id between browser sessions.
	CookieName = "survey_device"
	// MaxLen bounds accepted ids.
	MaxLen = 128

	fingerprintPrefix = "fp-"
)

// Source tells where an id came from.
type Source string

const (
	SourceHeader      Source = "header"
	SourceCookie      Source = "cookie"
	SourceFingerprint Source = "fingerprint"
)

// ErrInvalidID is returned for ids that are empty, too long or contain
// characters outside [A-Za-z0-9._:-].
var ErrInvalidID = errors.New("device: invalid id")

// Sanitize trims s and validates it.
func Sanitize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxLen {
		return "", ErrInvalidID
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return "", ErrInvalidID
		}
	}
	return s, nil
}

// FromRequest resolves the device id of r. clientIP is the caller-visible
// address (gin's c.ClientIP()); when empty, r.RemoteAddr is used. Invalid
// header or cookie values are ignored in favour of the next source.
func FromRequest(r *http.Request, clientIP string) (string, Source) {
	if id, err := Sanitize(r.Header.Get(HeaderDeviceID)); err == nil {
		return id, SourceHeader
	}
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := Sanitize(c.Value); err == nil {
			return id, SourceCookie
		}
	}
	if clientIP == "" {
		clientIP = r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}
	}
	return Fingerprint(r.UserAgent(), r.Header.Get("Accept-Language"), clientIP), SourceFingerprint
}

// Fingerprint hashes the given request characteristics into a stable id.
func Fingerprint(userAgent, acceptLanguage, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + acceptLanguage + "|" + ip))
	return fingerprintPrefix + hex.EncodeToString(sum[:])[:32]
}

// Cookie builds the cookie that pins id for ttl.
func Cookie(id string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FileResolver keeps a random token in a file, creating it on first use.
type FileResolver struct {
	Path string
}

// DefaultPath is <user config dir>/survey/device-id.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "survey", "device-id"), nil
}

// ResolveDeviceID reads the stored token or writes a new one.
func (f FileResolver) ResolveDeviceID(_ context.Context) (string, error) {
	if b, err := os.ReadFile(f.Path); err == nil {
		if id, err := Sanitize(string(b)); err == nil {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(f.Path, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}
