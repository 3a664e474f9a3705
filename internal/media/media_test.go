package media_test

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/skystore/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func picture(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	ext, err := media.Validate("Phone.PNG", picture(t, 120, 200))
	assert.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, err = media.Validate("phone.gif", picture(t, 120, 200))
	assert.True(t, media.IsValidationError(err))
	assert.Contains(t, err.Error(), "Unsupported file format")

	_, err = media.Validate("phone.png", []byte("definitely not an image"))
	assert.True(t, media.IsValidationError(err))
	assert.Contains(t, err.Error(), "JPEG or PNG")

	_, err = media.Validate("phone.png", picture(t, 99, 200))
	assert.True(t, media.IsValidationError(err))
	assert.Contains(t, err.Error(), "too small")

	_, err = media.Validate("phone.png", picture(t, 5001, 120))
	assert.True(t, media.IsValidationError(err))
	assert.Contains(t, err.Error(), "too large")

	_, err = media.Validate("phone.png", nil)
	assert.True(t, media.IsValidationError(err))

	_, err = media.Validate("phone.png", make([]byte, media.MaxFileSize+1))
	assert.True(t, media.IsValidationError(err))
	assert.Contains(t, err.Error(), "5 MB")
}

func TestStorage(t *testing.T) {
	storage := media.NewStorage(t.TempDir())

	name, err := storage.Write(media.DirProducts, "phone.png", picture(t, 100, 100))
	require.NoError(t, err)
	assert.Regexp(t, `^products/[0-9a-f-]{36}\.png$`, name)

	_, err = os.Stat(filepath.Join(storage.Root(), name))
	assert.NoError(t, err)

	require.NoError(t, storage.Remove(name))
	_, err = os.Stat(filepath.Join(storage.Root(), name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.Remove(name))
	assert.NoError(t, storage.Remove(""))

	_, err = storage.Write(media.DirProducts, "phone.png", []byte("nope"))
	assert.True(t, media.IsValidationError(err))
}
