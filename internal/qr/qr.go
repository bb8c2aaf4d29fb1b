// Package qr renders the public survey URL as a QR code with the highest
// error-correction level, as a PNG or as terminal text.
package qr

import (
	"errors"
	"net/url"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the PNG edge length in pixels.
	DefaultSize = 200
	// Filename is the suggested name for downloads.
	Filename = "survey-qr.png"

	minSize = 64
	maxSize = 2048
)

// ErrInvalidURL is returned for empty or non-http(s) URLs.
var ErrInvalidURL = errors.New("qr: survey url must be an absolute http(s) url")

// Validate checks that u can be encoded as the survey link.
func Validate(u string) error {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// ClampSize keeps size within the supported range, mapping 0 to DefaultSize.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < minSize:
		return minSize
	case size > maxSize:
		return maxSize
	}
	return size
}

// PNG encodes u as a size x size PNG.
func PNG(u string, size int) ([]byte, error) {
	if err := Validate(u); err != nil {
		return nil, err
	}
	return qrcode.Encode(strings.TrimSpace(u), qrcode.Highest, ClampSize(size))
}

// WriteFile stores the PNG at path.
func WriteFile(u string, size int, path string) error {
	png, err := PNG(u, size)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

// Terminal renders u with half-block characters for display in a terminal.
func Terminal(u string) (string, error) {
	if err := Validate(u); err != nil {
		return "", err
	}
	q, err := qrcode.New(strings.TrimSpace(u), qrcode.Highest)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
