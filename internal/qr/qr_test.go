package qr

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveyURL = "https://encuesta.example.com/"

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(surveyURL))
	assert.NoError(t, Validate(" http://192.168.1.10:8080/ "))
	for _, bad := range []string{"", "encuesta.example.com", "ftp://x.y/", "https://"} {
		assert.ErrorIs(t, Validate(bad), ErrInvalidURL, bad)
	}
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSize, ClampSize(0))
	assert.Equal(t, minSize, ClampSize(10))
	assert.Equal(t, maxSize, ClampSize(99999))
	assert.Equal(t, 300, ClampSize(300))
}

func TestPNG_DecodesAtRequestedSize(t *testing.T) {
	b, err := PNG(surveyURL, 0)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())

	_, err = PNG("not a url", 200)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	require.NoError(t, WriteFile(surveyURL, 256, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestTerminal(t *testing.T) {
	s, err := Terminal(surveyURL)
	require.NoError(t, err)
	assert.NotEmpty(t, s)
	assert.Contains(t, s, "\n")
}
