package totp

// Config holds TOTP settings read from the environment.
type Config struct {
	Issuer        string `env:"TOTP_ISSUER" envDefault:"JRMSU-LIBRARY"` // Issuer shown in authenticator apps
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"`                     // Base64 AES-256 key sealing secrets at rest (optional)
}
