package bridgeAuth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/bridgeAuth/password"
	"github.com/MrEthical07/bridgeAuth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testAccessSecret = "test-access-secret-test-access-secret"
	testPassword     = "correct-horse"
)

var errStoreDown = errors.New("store down")

type memSecondaryUsers struct {
	mu     sync.Mutex
	byID   map[string]*SecondaryUser
	nextID int
	err    error
}

func newMemSecondaryUsers() *memSecondaryUsers {
	return &memSecondaryUsers{byID: map[string]*SecondaryUser{}}
}

func (s *memSecondaryUsers) project(u *SecondaryUser, p Projection) *SecondaryUser {
	cp := *u
	if !p.Password {
		cp.Password = ""
	}
	if !p.TOTPSecret {
		cp.TOTPSecret = ""
	}
	return &cp
}

func (s *memSecondaryUsers) FindUser(_ context.Context, q UserQuery, p Projection) (*SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byID {
		if strings.EqualFold(u.Email, q.Email) {
			return s.project(u, p), nil
		}
	}
	return nil, nil
}

func (s *memSecondaryUsers) CreateUser(_ context.Context, in NewSecondaryUser) (*SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	u := &SecondaryUser{
		ID:        fmt.Sprintf("s-%d", s.nextID),
		Email:     in.Email,
		Name:      in.Name,
		Username:  in.Username,
		Role:      in.Role,
		Provider:  "local",
		Password:  in.Password,
		CreatedAt: time.Now(),
	}
	s.byID[u.ID] = u
	return s.project(u, Projection{}), nil
}

func (s *memSecondaryUsers) GetUserByID(_ context.Context, id string, p Projection) (*SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return s.project(u, p), nil
}

func (s *memSecondaryUsers) CountUsers(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return len(s.byID), nil
}

func (s *memSecondaryUsers) ListUsers(_ context.Context, opts ListOptions) ([]*SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*SecondaryUser, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, s.project(u, Projection{Password: true, TOTPSecret: true}))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *memSecondaryUsers) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	u, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("user %q not found", id)
	}
	u.Password = hash
	return nil
}

func (s *memSecondaryUsers) storedHash(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return u.Password
	}
	return ""
}

// seed inserts a user directly, hashing pw with h.
func (s *memSecondaryUsers) seed(t testing.TB, h PasswordHasher, u SecondaryUser, pw string) *SecondaryUser {
	t.Helper()
	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if u.ID == "" {
		u.ID = fmt.Sprintf("s-%d", s.nextID)
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Password = hash
	s.byID[u.ID] = &u
	cp := u
	return &cp
}

type memPrimaryUsers struct {
	mu        sync.Mutex
	byEmail   map[string]*PrimaryUser
	creates   int
	createErr error
	getErr    error
}

func newMemPrimaryUsers() *memPrimaryUsers {
	return &memPrimaryUsers{byEmail: map[string]*PrimaryUser{}}
}

func (p *memPrimaryUsers) GetUser(_ context.Context, email string) (*PrimaryUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	u, ok := p.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (p *memPrimaryUsers) CreateUser(_ context.Context, in NewPrimaryUser) (*PrimaryUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.creates++
	u := &PrimaryUser{
		ID:        fmt.Sprintf("p-%d", p.creates),
		Email:     in.Email,
		Username:  in.Username,
		Name:      in.Name,
		Role:      in.Role,
		Password:  in.Password,
		CreatedAt: time.Now(),
	}
	p.byEmail[strings.ToLower(in.Email)] = u
	cp := *u
	return &cp, nil
}

func (p *memPrimaryUsers) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates
}

func (p *memPrimaryUsers) suspend(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.byEmail[strings.ToLower(email)]; ok {
		u.Suspended = true
	}
}

// nopSessions satisfies SecondarySessionStore for builder tests that never touch
// sessions.
type nopSessions struct{}

func (*nopSessions) CreateSession(context.Context, string) (*session.Record, string, error) {
	return nil, "", errStoreDown
}

func (*nopSessions) FindSession(context.Context, session.Lookup) (*session.Record, error) {
	return nil, nil
}

func (*nopSessions) DeleteSession(context.Context, string) (bool, error) {
	return false, nil
}

func (*nopSessions) ListUserSessions(context.Context, string) ([]*session.Record, error) {
	return nil, nil
}

type staticMultiUser struct {
	enabled bool
	err     error
}

func (f *staticMultiUser) IsMultiUserMode(context.Context) (bool, error) {
	return f.enabled, f.err
}

type memAPIKeys map[string]*APIKey

func (m memAPIKeys) GetAPIKey(_ context.Context, secret string) (*APIKey, error) {
	return m[secret], nil
}

type testEnv struct {
	engine    *Engine
	secondary *memSecondaryUsers
	primary   *memPrimaryUsers
	flag      *staticMultiUser
	keys      memAPIKeys
	mr        *miniredis.Miniredis
	sink      *ChannelSink
	hasher    *password.Hasher
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = testAccessSecret
	cfg.Token.SharedPair = SharedPair{Primary: "primary-secret", Secondary: "secondary-secret"}
	cfg.Token.EncryptionKey = "proof-passphrase"
	cfg.Token.EncryptionSalt = "proof-salt"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 256, DropIfFull: true}
	cfg.Metrics = MetricsConfig{Enabled: true, EnableLatencyHistograms: true}
	return cfg
}

func newTestEnv(t testing.TB, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	env := &testEnv{
		secondary: newMemSecondaryUsers(),
		primary:   newMemPrimaryUsers(),
		flag:      &staticMultiUser{enabled: true},
		keys:      memAPIKeys{},
		mr:        mr,
		sink:      NewChannelSink(256),
		hasher:    hasher,
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSecondaryUsers(env.secondary).
		WithPrimaryUsers(env.primary).
		WithMultiUserMode(env.flag).
		WithAPIKeys(env.keys).
		WithPasswordHasher(hasher).
		WithAuditSink(env.sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

// events drains the audit sink until quiet.
func (env *testEnv) events(t *testing.T) []AuditEvent {
	t.Helper()
	var out []AuditEvent
	for {
		select {
		case ev := <-env.sink.Events():
			out = append(out, ev)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func hasEvent(events []AuditEvent, eventType string) bool {
	for _, ev := range events {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

