package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/jrmsu/libraryid/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelopeText = `{"fullName":"Maria Cruz","userId":"KC-24-A-00001","userType":"student","systemId":"JRMSU-LIBRARY","systemTag":"JRMSU-KCS","timestamp":1741942800000,"authCode":"123456","encryptedToken":"abc=="}`

func TestRenderer_PNG(t *testing.T) {
	t.Parallel()

	t.Run("rejects blank content", func(t *testing.T) {
		t.Parallel()
		for _, content := range []string{"", "   \t\n"} {
			out, err := qrcode.Default.PNG(content)
			assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
			assert.Nil(t, out)
		}
	})

	t.Run("renders envelope text at requested size", func(t *testing.T) {
		t.Parallel()
		out, err := qrcode.Renderer{Size: 300, Level: qrcode.Medium}.PNG(envelopeText)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 300, img.Bounds().Dx())
		assert.Equal(t, 300, img.Bounds().Dy())
	})

	t.Run("falls back to default size", func(t *testing.T) {
		t.Parallel()
		out, err := qrcode.Generate("otpauth://totp/JRMSU-LIBRARY:KCL-00001?secret=ABCD", 0)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, img.Bounds().Dx())
	})

	t.Run("content too large for the level fails", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.Renderer{Level: qrcode.Highest}.PNG(strings.Repeat("x", 4000))
		assert.ErrorIs(t, err, qrcode.ErrorFailedToGenerateQRCode)
	})
}

func TestRenderer_DataURI(t *testing.T) {
	t.Parallel()
	uri, err := qrcode.GenerateBase64Image(envelopeText, 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}
