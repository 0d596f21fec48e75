package bridgeAuth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/bridgeAuth/session"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, tc := range []struct{ email, password string }{
		{"", "pw"},
		{"a@b.com", ""},
		{"   ", "pw"},
	} {
		if _, err := env.engine.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrValidation) {
			t.Fatalf("Login(%q,%q): expected ErrValidation, got %v", tc.email, tc.password, err)
		}
	}
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	ctx := context.Background()

	_, errUnknown := env.engine.Login(ctx, "nobody@b.com", testPassword)
	_, errWrong := env.engine.Login(ctx, "a@b.com", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials twice, got %v and %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("error text differs: %q vs %q", errUnknown, errWrong)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 2 {
		t.Fatalf("expected 2 login failures counted, got %d", got)
	}
}

func TestLoginIssuesSessionTokenAndMirror(t *testing.T) {
	env := newTestEnv(t)
	user := env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com", Name: "Ann", Role: RoleAdmin}, testPassword)
	ctx := context.Background()

	res, err := env.engine.Login(ctx, "a@b.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.TwoFAPending || res.TempToken != "" {
		t.Fatalf("unexpected step-up result: %+v", res)
	}
	if res.Token == "" || res.RefreshToken == "" || res.Session == nil {
		t.Fatalf("expected token, refresh token and session: %+v", res)
	}
	if res.User.ID != user.ID || res.User.Role != RoleAdmin || res.User.Name != "Ann" {
		t.Fatalf("unexpected public user: %+v", res.User)
	}

	wantExpiry := time.Now().Add(session.DefaultTTL)
	if d := res.Session.Expiration.Sub(wantExpiry); d > time.Minute || d < -time.Minute {
		t.Fatalf("expected session expiry near %v, got %v", wantExpiry, res.Session.Expiration)
	}

	verified, err := env.engine.VerifyToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if verified.ID != user.ID || verified.Email != "a@b.com" || !verified.IsAdmin() {
		t.Fatalf("unexpected verified user: %+v", verified)
	}
	if verified.Primary == nil || verified.Primary.Role != RoleAdmin {
		t.Fatalf("expected primary mirror with copied role, got %+v", verified.Primary)
	}

	if env.primary.count() != 1 {
		t.Fatalf("expected one mirror record, got %d", env.primary.count())
	}

	sessions, err := env.engine.ListUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != res.Session.ID {
		t.Fatalf("expected the login session to be listed, got %+v", sessions)
	}

	events := env.events(t)
	if !hasEvent(events, auditEventLoginSuccess) || !hasEvent(events, auditEventMirrorCreated) {
		t.Fatalf("missing audit events: %+v", events)
	}
}

func TestLoginTwoFactorStopsBeforeSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.secondary.seed(t, env.hasher, SecondaryUser{Email: "2fa@b.com", TwoFactorEnabled: true, TOTPSecret: "JBSWY3DPEHPK3PXP"}, testPassword)
	ctx := context.Background()

	res, err := env.engine.Login(ctx, "2fa@b.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.TwoFAPending || res.TempToken == "" {
		t.Fatalf("expected pending step-up, got %+v", res)
	}
	if res.Token != "" || res.RefreshToken != "" || res.Session != nil {
		t.Fatalf("step-up result must not carry credentials: %+v", res)
	}
	if res.User.ID != user.ID || res.User.Email != "2fa@b.com" || res.User.Role != "" {
		t.Fatalf("expected only id and email, got %+v", res.User)
	}

	sessions, err := env.engine.ListUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no session before step-up, got %d", len(sessions))
	}

	if _, err := env.engine.VerifyToken(ctx, res.TempToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("temp token must not verify as access token, got %v", err)
	}
}

func TestLoginMirrorFailureDoesNotFailLogin(t *testing.T) {
	env := newTestEnv(t)
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	env.primary.createErr = errStoreDown

	res, err := env.engine.Login(context.Background(), "a@b.com", testPassword)
	if err != nil {
		t.Fatalf("login must survive mirror failure: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricMirrorFailure]; got != 1 {
		t.Fatalf("expected one mirror failure counted, got %d", got)
	}
	if !hasEvent(env.events(t), auditEventMirrorFailure) {
		t.Fatal("expected mirror_failure audit event")
	}
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	env.secondary.err = errStoreDown

	_, err := env.engine.Login(context.Background(), "a@b.com", testPassword)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failure must not look like bad credentials")
	}
}

func TestLoginThrottleLocksOutAfterBudget(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Security.EnableLoginThrottle = true
		c.Security.MaxLoginAttempts = 2
		c.Security.LoginCooldownDuration = time.Minute
	})
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	for i := 0; i < 2; i++ {
		if _, err := env.engine.Login(ctx, "a@b.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	if _, err := env.engine.Login(ctx, "a@b.com", testPassword); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited with correct password, got %v", err)
	}

	env.mr.FastForward(2 * time.Minute)

	if _, err := env.engine.Login(ctx, "a@b.com", testPassword); err != nil {
		t.Fatalf("expected login after cooldown, got %v", err)
	}
}

func TestLoginSuccessResetsThrottle(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Security.EnableLoginThrottle = true
		c.Security.MaxLoginAttempts = 2
	})
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	ctx := context.Background()

	if _, err := env.engine.Login(ctx, "a@b.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "a@b.com", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.engine.Login(ctx, "a@b.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("counter should have been reset, got %v", err)
	}
}

func TestLoginUpgradesLegacyPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	env.secondary.mu.Lock()
	env.secondary.byID["legacy"] = &SecondaryUser{ID: "legacy", Email: "old@b.com", Role: RoleUser, Password: string(legacy)}
	env.secondary.mu.Unlock()
	ctx := context.Background()

	if _, err := env.engine.Login(ctx, "old@b.com", testPassword); err != nil {
		t.Fatalf("login with bcrypt hash: %v", err)
	}
	upgraded := env.secondary.storedHash("legacy")
	if !strings.HasPrefix(upgraded, "$argon2id$") {
		t.Fatalf("expected argon2id hash after login, got %q", upgraded)
	}

	if _, err := env.engine.Login(ctx, "old@b.com", testPassword); err != nil {
		t.Fatalf("login with upgraded hash: %v", err)
	}
	if got := env.secondary.storedHash("legacy"); got != upgraded {
		t.Fatal("current hash must not be rewritten")
	}
}

func TestLoginFailureAuditCarriesAttemptCount(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Security.EnableLoginThrottle = true
		c.Security.MaxLoginAttempts = 5
	})
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.engine.Login(ctx, "a@b.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	var attempts []string
	for _, ev := range env.events(t) {
		if ev.EventType == auditEventLoginFailure {
			attempts = append(attempts, ev.Metadata["attempts"])
		}
	}
	if len(attempts) != 2 || attempts[0] != "1" || attempts[1] != "2" {
		t.Fatalf("expected attempts 1 then 2, got %v", attempts)
	}
}

func TestLoginWithoutSignerLeavesNoSession(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Token.AccessSecret = ""
		c.Security.DevBypass = true
	})
	user := env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com"}, testPassword)
	ctx := context.Background()

	if _, err := env.engine.Login(ctx, "a@b.com", testPassword); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}

	sessions, err := env.engine.ListUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("failed mint must not leave a session, got %d", len(sessions))
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricSessionCreated]; got != 0 {
		t.Fatalf("expected no sessions counted, got %d", got)
	}
}
