package primary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/store/primary/migrations"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const multiUserModeLabel = "multi_user_mode"

// Store is the primary platform's user, API key and settings tables.
type Store struct {
	db *sql.DB
}

var (
	_ bridgeAuth.PrimaryUserStore   = (*Store)(nil)
	_ bridgeAuth.PrimaryAPIKeyStore = (*Store)(nil)
	_ bridgeAuth.MultiUserModeFlag  = (*Store)(nil)
)

// New wraps an open database. It does not run migrations.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the pgx driver and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// Migrate applies the embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser returns the user with email, compared case-insensitively, or nil.
func (s *Store) GetUser(ctx context.Context, email string) (*bridgeAuth.PrimaryUser, error) {
	query :=
		`SELECT id, email, username, name, role, password, suspended, created_at FROM users
		 WHERE lower(email) = lower($1)
		 `

	u := &bridgeAuth.PrimaryUser{}
	err := s.db.QueryRowContext(ctx, query, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.Role, &u.Password, &u.Suspended, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// CreateUser inserts a mirror record. When a record with the same email already
// exists, for example from a concurrent mirror, that record is returned instead.
func (s *Store) CreateUser(ctx context.Context, in bridgeAuth.NewPrimaryUser) (*bridgeAuth.PrimaryUser, error) {
	query :=
		`INSERT INTO users (id, email, username, name, role, password)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING
		 RETURNING created_at
		 `

	u := &bridgeAuth.PrimaryUser{
		ID:       uuid.NewString(),
		Email:    strings.TrimSpace(in.Email),
		Username: in.Username,
		Name:     in.Name,
		Role:     in.Role,
		Password: in.Password,
	}
	err := s.db.QueryRowContext(ctx, query, u.ID, u.Email, u.Username, u.Name, u.Role, u.Password).
		Scan(&u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existing, getErr := s.GetUser(ctx, u.Email)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, fmt.Errorf("db error: insert of %q conflicted but no row found", u.Email)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// SetSuspended flips the suspension flag of the user with email.
func (s *Store) SetSuspended(ctx context.Context, email string, suspended bool) error {
	query :=
		`UPDATE users SET suspended = $2
		 WHERE lower(email) = lower($1)
		 `

	res, err := s.db.ExecContext(ctx, query, email, suspended)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %q not found", email)
	}
	return nil
}

// GetAPIKey returns the key whose secret equals secret, or nil.
func (s *Store) GetAPIKey(ctx context.Context, secret string) (*bridgeAuth.APIKey, error) {
	query :=
		`SELECT id, secret, COALESCE(created_by::text, ''), created_at FROM api_keys
		 WHERE secret = $1
		 `

	k := &bridgeAuth.APIKey{}
	err := s.db.QueryRowContext(ctx, query, secret).Scan(&k.ID, &k.Secret, &k.CreatedBy, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return k, nil
}

// CreateAPIKey issues a random key owned by createdBy, which may be empty.
func (s *Store) CreateAPIKey(ctx context.Context, createdBy string) (*bridgeAuth.APIKey, error) {
	query :=
		`INSERT INTO api_keys (id, secret, created_by)
		 VALUES ($1, $2, NULLIF($3, '')::uuid)
		 RETURNING created_at
		 `

	k := &bridgeAuth.APIKey{
		ID:        uuid.NewString(),
		Secret:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreatedBy: createdBy,
	}
	if err := s.db.QueryRowContext(ctx, query, k.ID, k.Secret, createdBy).Scan(&k.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return k, nil
}

// IsMultiUserMode reads the multi_user_mode setting. A missing row means off.
func (s *Store) IsMultiUserMode(ctx context.Context) (bool, error) {
	query :=
		`SELECT value FROM system_settings
		 WHERE label = $1
		 `

	var value string
	err := s.db.QueryRowContext(ctx, query, multiUserModeLabel).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return value == "true", nil
}

// SetMultiUserMode writes the multi_user_mode setting.
func (s *Store) SetMultiUserMode(ctx context.Context, enabled bool) error {
	query :=
		`INSERT INTO system_settings (label, value)
		 VALUES ($1, $2)
		 ON CONFLICT (label) DO UPDATE SET value = EXCLUDED.value
		 `

	value := "false"
	if enabled {
		value = "true"
	}
	if _, err := s.db.ExecContext(ctx, query, multiUserModeLabel, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
