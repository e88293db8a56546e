package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/pg"
	"github.com/jrmsu/libraryid/pkg/totp"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads and writes the identities table. With a sealer, TOTP
// secrets are stored encrypted.
type PostgresStore struct {
	db     DB
	sealer *totp.Sealer
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithSealer encrypts TOTP secrets at rest.
func WithSealer(s *totp.Sealer) PostgresOption {
	return func(p *PostgresStore) { p.sealer = s }
}

// NewPostgresStore wraps db. Run pg.Migrate with Migrations first.
func NewPostgresStore(db DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const selectColumns = `id, role, full_name, coalesce(email, ''), department, course, year, section,
	position, password_hash, totp_secret, second_factor_enabled, active, updated_at`

func (s *PostgresStore) Authenticate(ctx context.Context, id, password string) (Record, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	if !checkPassword(rec.PasswordHash, password) || err != nil {
		return Record{}, ErrInvalidCredentials
	}
	if !rec.Active {
		return Record{}, ErrInactive
	}
	return rec, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Record, error) {
	return s.one(ctx, `SELECT `+selectColumns+` FROM identities WHERE id = $1`, strings.TrimSpace(id))
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (Record, error) {
	return s.one(ctx, `SELECT `+selectColumns+` FROM identities WHERE lower(email) = $1`, NormalizeEmail(email))
}

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+selectColumns+` FROM identities WHERE role = $1 AND active ORDER BY id`, string(envelope.Admin))
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateSecondFactor(ctx context.Context, id, secret string, enabled bool) error {
	if enabled && secret == "" {
		return fmt.Errorf("%w: second factor enabled without a secret", ErrInvalidRecord)
	}
	stored, err := s.seal(secret)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE identities SET totp_secret = $2, second_factor_enabled = $3, updated_at = now() WHERE id = $1`,
		id, stored, enabled)
	if err != nil {
		return fmt.Errorf("update second factor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	stored, err := s.seal(rec.TOTPSecret)
	if err != nil {
		return err
	}
	var email any
	if e := NormalizeEmail(rec.Email); e != "" {
		email = e
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO identities (id, role, full_name, email, department, course, year, section, position,
	password_hash, totp_secret, second_factor_enabled, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	role = EXCLUDED.role, full_name = EXCLUDED.full_name, email = EXCLUDED.email,
	department = EXCLUDED.department, course = EXCLUDED.course, year = EXCLUDED.year,
	section = EXCLUDED.section, position = EXCLUDED.position, password_hash = EXCLUDED.password_hash,
	totp_secret = EXCLUDED.totp_secret, second_factor_enabled = EXCLUDED.second_factor_enabled,
	active = EXCLUDED.active, updated_at = now()`,
		rec.ID, string(rec.Role), rec.FullName, email, rec.Department, rec.Course, rec.Year,
		rec.Section, rec.Position, rec.PasswordHash, stored, rec.SecondFactorEnabled, rec.Active)
	if pg.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) one(ctx context.Context, query string, arg string) (Record, error) {
	rec, err := s.scan(s.db.QueryRow(ctx, query, arg))
	if pg.IsNotFoundError(err) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) scan(row pgx.Row) (Record, error) {
	var (
		rec  Record
		role string
	)
	err := row.Scan(&rec.ID, &role, &rec.FullName, &rec.Email, &rec.Department, &rec.Course,
		&rec.Year, &rec.Section, &rec.Position, &rec.PasswordHash, &rec.TOTPSecret,
		&rec.SecondFactorEnabled, &rec.Active, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Role = envelope.UserType(role)
	if rec.TOTPSecret, err = s.open(rec.TOTPSecret); err != nil {
		return Record{}, fmt.Errorf("identity %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *PostgresStore) seal(secret string) (string, error) {
	if s.sealer == nil || secret == "" {
		return secret, nil
	}
	return s.sealer.Seal(secret)
}

func (s *PostgresStore) open(stored string) (string, error) {
	if s.sealer == nil || stored == "" {
		return stored, nil
	}
	return s.sealer.Open(stored)
}
