// Command keygen prints key material for local setup: an AES-256 key for
// TOTP_ENCRYPTION_KEY and, with -account, a fresh TOTP secret with its
// enrollment URI.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jrmsu/libraryid/pkg/totp"
)

func main() {
	account := flag.String("account", "", "library id to enroll (prints a TOTP secret and URI)")
	issuer := flag.String("issuer", "JRMSU-LIBRARY", "issuer shown in authenticator apps")
	flag.Parse()

	encodedKey, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		log.Fatalf("Failed to generate encoded encryption key: %v", err)
	}
	fmt.Printf("TOTP_ENCRYPTION_KEY:\n%s\n", encodedKey)

	if *account == "" {
		return
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		log.Fatalf("Failed to generate TOTP secret: %v", err)
	}
	uri, err := totp.BuildURI(secret, *account, *issuer)
	if err != nil {
		log.Fatalf("Failed to build enrollment URI: %v", err)
	}
	fmt.Printf("\nSecret:\n%s\n\nURI:\n%s\n", secret, uri)
}
