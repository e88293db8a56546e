package identity

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jrmsu/libraryid/pkg/envelope"
)

// seedFile is the YAML layout of IDENTITY_SEED_FILE.
//
//	identities:
//	  - id: KCL-00001
//	    role: admin
//	    full_name: Library Administrator
//	    email: admin@jrmsu.edu.ph
//	    password: change-me
type seedFile struct {
	Identities []seedEntry `yaml:"identities"`
}

type seedEntry struct {
	ID           string `yaml:"id"`
	Role         string `yaml:"role"`
	FullName     string `yaml:"full_name"`
	Email        string `yaml:"email"`
	Department   string `yaml:"department"`
	Course       string `yaml:"course"`
	Year         string `yaml:"year"`
	Section      string `yaml:"section"`
	Position     string `yaml:"position"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	TOTPSecret   string `yaml:"totp_secret"`
	TwoFactor    bool   `yaml:"two_factor_enabled"`
	Inactive     bool   `yaml:"inactive"`
}

// ParseSeed reads identities from YAML. Plain passwords are hashed with
// bcrypt at cost; a password_hash entry is used as is.
func ParseSeed(r io.Reader, cost int) ([]Record, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode identity seed: %w", err)
	}

	recs := make([]Record, 0, len(f.Identities))
	for i, e := range f.Identities {
		hash := e.PasswordHash
		if hash == "" && e.Password != "" {
			var err error
			if hash, err = HashPassword(e.Password, cost); err != nil {
				return nil, fmt.Errorf("identity seed entry %d: %w", i, err)
			}
		}
		rec := Record{
			ID:                  e.ID,
			Role:                envelope.UserType(e.Role),
			FullName:            e.FullName,
			Email:               NormalizeEmail(e.Email),
			Department:          e.Department,
			Course:              e.Course,
			Year:                e.Year,
			Section:             e.Section,
			Position:            e.Position,
			PasswordHash:        hash,
			TOTPSecret:          e.TOTPSecret,
			SecondFactorEnabled: e.TwoFactor,
			Active:              !e.Inactive,
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("identity seed entry %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadSeedFile parses the seed at path and upserts every entry into w.
func LoadSeedFile(ctx context.Context, path string, w Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	recs, err := ParseSeed(f, 0)
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if err := w.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("seed %s: %w", rec.ID, err)
		}
	}
	return len(recs), nil
}
