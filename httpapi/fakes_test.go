package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/password"
	"github.com/MrEthical07/bridgeAuth/totp"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword   = "correct-horse"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

type userStore struct {
	mu    sync.Mutex
	users map[string]*bridgeAuth.SecondaryUser
}

func (s *userStore) FindUser(_ context.Context, q bridgeAuth.UserQuery, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, q.Email) {
			return project(u, p), nil
		}
	}
	return nil, nil
}

func (s *userStore) CreateUser(_ context.Context, in bridgeAuth.NewSecondaryUser) (*bridgeAuth.SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &bridgeAuth.SecondaryUser{
		ID:       fmt.Sprintf("s-%d", len(s.users)+1),
		Email:    in.Email,
		Name:     in.Name,
		Username: in.Username,
		Role:     in.Role,
		Password: in.Password,
	}
	s.users[u.ID] = u
	return project(u, bridgeAuth.Projection{}), nil
}

func (s *userStore) GetUserByID(_ context.Context, id string, p bridgeAuth.Projection) (*bridgeAuth.SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return project(u, p), nil
	}
	return nil, nil
}

func (s *userStore) CountUsers(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *userStore) ListUsers(_ context.Context, _ bridgeAuth.ListOptions) ([]*bridgeAuth.SecondaryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bridgeAuth.SecondaryUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, project(u, bridgeAuth.Projection{}))
	}
	return out, nil
}

func project(u *bridgeAuth.SecondaryUser, p bridgeAuth.Projection) *bridgeAuth.SecondaryUser {
	cp := *u
	if !p.Password {
		cp.Password = ""
	}
	if !p.TOTPSecret {
		cp.TOTPSecret = ""
	}
	return &cp
}

type mirrorStore struct {
	mu    sync.Mutex
	users map[string]*bridgeAuth.PrimaryUser
}

func (m *mirrorStore) GetUser(_ context.Context, email string) (*bridgeAuth.PrimaryUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mirrorStore) CreateUser(_ context.Context, in bridgeAuth.NewPrimaryUser) (*bridgeAuth.PrimaryUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &bridgeAuth.PrimaryUser{ID: "p-" + in.Email, Email: in.Email, Role: in.Role, Password: in.Password}
	m.users[in.Email] = u
	cp := *u
	return &cp, nil
}

type multiUser struct{ enabled bool }

func (m *multiUser) IsMultiUserMode(context.Context) (bool, error) { return m.enabled, nil }

type keyStore map[string]*bridgeAuth.APIKey

func (k keyStore) GetAPIKey(_ context.Context, secret string) (*bridgeAuth.APIKey, error) {
	return k[secret], nil
}

type harness struct {
	handler http.Handler
	users   *userStore
	mirrors *mirrorStore
	multi   *multiUser
	gate    *RegistrationGate
	hasher  *password.Hasher
}

func newHarness(t *testing.T, mutate ...func(*bridgeAuth.Config)) *harness {
	t.Helper()

	cfg := bridgeAuth.DefaultConfig()
	cfg.Token.AccessSecret = "http-test-secret-http-test-secret"
	cfg.Token.SharedPair = bridgeAuth.SharedPair{Primary: "p", Secondary: "s"}
	cfg.Token.EncryptionKey = "proof-key"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	for _, fn := range mutate {
		fn(&cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hasher, err := password.NewHasher(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	h := &harness{
		users:   &userStore{users: map[string]*bridgeAuth.SecondaryUser{}},
		mirrors: &mirrorStore{users: map[string]*bridgeAuth.PrimaryUser{}},
		multi:   &multiUser{enabled: true},
		gate:    NewRegistrationGate(true),
		hasher:  hasher,
	}

	engine, err := bridgeAuth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSecondaryUsers(h.users).
		WithPrimaryUsers(h.mirrors).
		WithMultiUserMode(h.multi).
		WithAPIKeys(keyStore{"key-1": {ID: "k1", Secret: "key-1"}}).
		WithPasswordHasher(hasher).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	_, h.handler = NewRouter(engine, Options{Registration: h.gate})
	return h
}

func (h *harness) seed(t *testing.T, u bridgeAuth.SecondaryUser) {
	t.Helper()
	hash, err := h.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u.Password = hash
	if u.Role == "" {
		u.Role = bridgeAuth.RoleUser
	}
	h.users.mu.Lock()
	h.users.users[u.ID] = &u
	h.users.mu.Unlock()
}

func (h *harness) do(t *testing.T, method, path, body string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func currentCode(t *testing.T) string {
	t.Helper()
	v, err := totp.New(totp.Config{})
	if err != nil {
		t.Fatalf("totp: %v", err)
	}
	code, err := v.Code(testTOTPSecret, time.Now())
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	return code
}
