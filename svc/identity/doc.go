// Package identity is the account store behind sign-in: records with a
// bcrypt password verifier, an optional TOTP secret and a second-factor flag.
//
// MemoryStore serves development and tests and can be seeded from YAML.
// PostgresStore persists to the identities table created by Migrations and
// optionally seals TOTP secrets with a totp.Sealer.
package identity
