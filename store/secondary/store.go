package secondary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/store/secondary/migrations"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DefaultListLimit caps ListUsers when no limit is given.
const DefaultListLimit = 50

const userColumns = `id, email, name, username, role, provider, email_verified, two_factor_enabled, password, totp_secret, created_at`

// Store is the secondary platform's user table.
type Store struct {
	db *sql.DB
}

var (
	_ bridgeAuth.SecondaryUserStore       = (*Store)(nil)
	_ bridgeAuth.SecondaryPasswordUpdater = (*Store)(nil)
)

// Open opens the SQLite database at path and applies bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindUser(ctx context.Context, q bridgeAuth.UserQuery, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?1 COLLATE NOCASE`,
		strings.TrimSpace(q.Email))
	return scanOne(row, p)
}

func (s *Store) GetUserByID(ctx context.Context, id string, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?1`, id)
	return scanOne(row, p)
}

// CreateUser inserts a local user with a fresh UUID. in.Password must already be
// hashed.
func (s *Store) CreateUser(ctx context.Context, in bridgeAuth.NewSecondaryUser) (*bridgeAuth.SecondaryUser, error) {
	u := &bridgeAuth.SecondaryUser{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(in.Email),
		Name:      in.Name,
		Username:  in.Username,
		Role:      in.Role,
		Provider:  "local",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if u.Role == "" {
		u.Role = bridgeAuth.RoleUser
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, username, role, provider, password, created_at)
		 VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)`,
		u.ID, u.Email, u.Name, u.Username, u.Role, u.Provider, in.Password, u.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// ListUsers returns users oldest first without secrets.
func (s *Store) ListUsers(ctx context.Context, opts bridgeAuth.ListOptions) ([]*bridgeAuth.SecondaryUser, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT ?1 OFFSET ?2`,
		limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*bridgeAuth.SecondaryUser
	for rows.Next() {
		u, err := scanUser(rows, bridgeAuth.Projection{})
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// EnableTwoFactor stores a base32 TOTP secret for id and turns step-up on. An empty
// secret turns it off.
func (s *Store) EnableTwoFactor(ctx context.Context, id, secret string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = ?2, two_factor_enabled = ?3 WHERE id = ?1`,
		id, secret, secret != "")
	if err != nil {
		return fmt.Errorf("update two-factor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %q not found", id)
	}
	return nil
}

// UpdatePassword replaces the stored password hash of id.
func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ?2 WHERE id = ?1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %q not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	u, err := scanUser(row, p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func scanUser(row scanner, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	var (
		u         bridgeAuth.SecondaryUser
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Username, &u.Role, &u.Provider,
		&u.EmailVerified, &u.TwoFactorEnabled, &u.Password, &u.TOTPSecret, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	if !p.Password {
		u.Password = ""
	}
	if !p.TOTPSecret {
		u.TOTPSecret = ""
	}
	return &u, nil
}
