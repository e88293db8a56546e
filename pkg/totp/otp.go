package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second time step (RFC 6238 standard)
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SecretLength is the number of Base32 symbols in a generated secret (160 bits).
	SecretLength = 32
)

// secretAlphabet is the RFC 4648 Base32 alphabet without padding.
const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	otpRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, DefaultDigits))

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Window is the number of time steps accepted before and after the current one.
type Window struct {
	Back    int
	Forward int
}

var (
	// NarrowWindow (±60s) is used for the advisory remote check.
	NarrowWindow = Window{Back: 2, Forward: 2}
	// WideWindow (±150s) is used for authoritative local verification.
	WideWindow = Window{Back: 5, Forward: 5}
)

// Symmetric returns a window accepting n steps on each side of the current step.
func Symmetric(n int) Window {
	return Window{Back: n, Forward: n}
}

func (w Window) clamp() Window {
	return Window{Back: max(w.Back, 0), Forward: max(w.Forward, 0)}
}

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier such as the library id (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey returns a random secret of SecretLength symbols drawn from A-Z2-7.
func GenerateSecretKey() (string, error) {
	buf := make([]byte, SecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	// 256 is a multiple of 32, so masking keeps the distribution uniform.
	for i, b := range buf {
		buf[i] = secretAlphabet[b&0x1f]
	}
	return string(buf), nil
}

// NormalizeSecret removes all whitespace and uppercases the secret.
func NormalizeSecret(secret string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, secret))
}

// normalizeCode strips spaces an authenticator app may show between digit groups.
func normalizeCode(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), " ", "")
}

// DecodeSecret normalizes and decodes a Base32 secret into HMAC key bytes.
func DecodeSecret(secret string) ([]byte, error) {
	secret = NormalizeSecret(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := b32.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// GetTOTPURI creates a properly encoded TOTP URI for use with authenticator apps.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", fmt.Sprintf("%d", params.Digits))
	query.Set("period", fmt.Sprintf("%d", params.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// BuildURI returns the enrollment URI with the fixed SHA1 / 6 digits / 30s parameters.
func BuildURI(secret, account, issuer string) (string, error) {
	return GetTOTPURI(TOTPParams{
		Secret:      NormalizeSecret(secret),
		AccountName: account,
		Issuer:      issuer,
	})
}

// Counter returns the time-step index containing t.
func Counter(t time.Time) int64 {
	sec := t.Unix()
	c := sec / DefaultPeriod
	if sec < 0 && sec%DefaultPeriod != 0 {
		c--
	}
	return c
}

// CodeAt returns the code for the 30-second step containing t.
func CodeAt(secret string, t time.Time) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return formatCode(GenerateHOTP(key, Counter(t), DefaultDigits)), nil
}

// Verify reports whether code matches any step in [at-Back*30s, at+Forward*30s].
//
// An empty secret never verifies and is not an error. A secret that is not valid
// Base32 returns ErrInvalidSecret, and a code that is not six digits returns ErrInvalidOTP.
func Verify(secret, code string, at time.Time, w Window) (bool, error) {
	if strings.TrimSpace(secret) == "" {
		return false, nil
	}
	key, err := DecodeSecret(secret)
	if err != nil {
		return false, errors.Join(ErrFailedToValidateTOTP, err)
	}

	code = normalizeCode(code)
	if !otpRegex.MatchString(code) {
		return false, ErrInvalidOTP
	}

	w = w.clamp()
	counter := Counter(at)
	matched := false
	for i := -int64(w.Back); i <= int64(w.Forward); i++ {
		candidate := formatCode(GenerateHOTP(key, counter+i, DefaultDigits))
		// Keep scanning after a hit so timing does not reveal the matching step.
		if hmac.Equal([]byte(candidate), []byte(code)) {
			matched = true
		}
	}
	return matched, nil
}

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm.
// The algorithm converts a counter value into a numeric code using HMAC-SHA1.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	// Convert counter to big-endian 8-byte array (RFC 4226 requirement)
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter = counter >> 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): use last 4 bits as offset into hash
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	return code % int(math.Pow10(digits))
}

func formatCode(code int) string {
	return fmt.Sprintf("%0*d", DefaultDigits, code)
}
