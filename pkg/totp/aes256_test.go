package totp_test

import (
	"encoding/base64"
	"testing"

	"github.com/jrmsu/libraryid/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	s, err := totp.NewSealer(key)
	require.NoError(t, err)

	for _, plain := range []string{"JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP", ""} {
		sealed, err := s.Seal(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, sealed)

		opened, err := s.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, plain, opened)
	}
}

func TestSealer_NonceVaries(t *testing.T) {
	t.Parallel()
	s, err := totp.NewSealer(make([]byte, totp.AESKeySize))
	require.NoError(t, err)
	a, err := s.Seal("SAME")
	require.NoError(t, err)
	b, err := s.Seal("SAME")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewSealer_InvalidKey(t *testing.T) {
	t.Parallel()
	_, err := totp.NewSealer(make([]byte, 16))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestSealer_OpenInvalid(t *testing.T) {
	t.Parallel()
	s, err := totp.NewSealer(make([]byte, totp.AESKeySize))
	require.NoError(t, err)

	tests := []struct {
		name   string
		sealed string
	}{
		{"invalid base64", "invalid-base64!@#$"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"tampered", base64.StdEncoding.EncodeToString(make([]byte, 40))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Open(tt.sealed)
			assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
		})
	}
}

func TestDecodeEncryptionKey(t *testing.T) {
	t.Parallel()
	encoded, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	key, err := totp.DecodeEncryptionKey(encoded)
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)

	_, err = totp.DecodeEncryptionKey("")
	assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)

	_, err = totp.DecodeEncryptionKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)

	_, err = totp.NewSealerFromConfig(totp.Config{EncryptionKey: encoded})
	assert.NoError(t, err)
}
