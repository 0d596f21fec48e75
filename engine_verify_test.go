package bridgeAuth

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/bridgeAuth/encryption"
	"github.com/MrEthical07/bridgeAuth/jwt"
)

func TestVerifyTokenRejectsTamperedProof(t *testing.T) {
	env := newTestEnv(t)
	user, _ := loggedIn(t, env)
	ctx := context.Background()

	signer, err := jwt.NewManager(jwt.Config{Secret: []byte(testAccessSecret)})
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	noProof, _ := signer.CreateAccess(user.ID, user.Email, user.Role, "")
	if _, err := env.engine.VerifyToken(ctx, noProof); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("missing proof: expected ErrTokenInvalid, got %v", err)
	}

	garbage, _ := signer.CreateAccess(user.ID, user.Email, user.Role, "not-ciphertext")
	if _, err := env.engine.VerifyToken(ctx, garbage); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage proof: expected ErrTokenInvalid, got %v", err)
	}

	enc, err := encryption.New("proof-passphrase", "proof-salt")
	if err != nil {
		t.Fatalf("encrypter: %v", err)
	}
	wrongPair, _ := enc.Encrypt("primary-secret:other")
	forged, _ := signer.CreateAccess(user.ID, user.Email, user.Role, wrongPair)
	if _, err := env.engine.VerifyToken(ctx, forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong pair: expected ErrTokenInvalid, got %v", err)
	}

	rightPair, _ := enc.Encrypt("primary-secret:secondary-secret")
	good, _ := signer.CreateAccess(user.ID, user.Email, user.Role, rightPair)
	if _, err := env.engine.VerifyToken(ctx, good); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}
}

func TestVerifyTokenRejectsForeignSecretAndUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, login := loggedIn(t, env)
	ctx := context.Background()

	foreign, _ := jwt.NewManager(jwt.Config{Secret: []byte("another-secret-another-secret")})
	tok, _ := foreign.CreateAccess("s-1", "a@b.com", RoleUser, "")
	if _, err := env.engine.VerifyToken(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign secret: expected ErrTokenInvalid, got %v", err)
	}

	env.secondary.mu.Lock()
	env.secondary.byID = map[string]*SecondaryUser{}
	env.secondary.mu.Unlock()
	if _, err := env.engine.VerifyToken(ctx, login.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown user: expected ErrTokenInvalid, got %v", err)
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricTokenRejected]; got != 2 {
		t.Fatalf("expected 2 rejections counted, got %d", got)
	}
}

func TestVerifyTokenIgnoresPrimaryFailures(t *testing.T) {
	env := newTestEnv(t)
	_, login := loggedIn(t, env)
	env.primary.getErr = errStoreDown

	user, err := env.engine.VerifyToken(context.Background(), login.Token)
	if err != nil {
		t.Fatalf("primary failure must not reject token: %v", err)
	}
	if user.Primary != nil {
		t.Fatalf("expected no primary record, got %+v", user.Primary)
	}
}

func TestVerifyTokenReportsSuspension(t *testing.T) {
	env := newTestEnv(t)
	_, login := loggedIn(t, env)
	env.primary.suspend("a@b.com")

	user, err := env.engine.VerifyToken(context.Background(), login.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !user.Suspended() {
		t.Fatal("expected suspended user")
	}
}

func TestVerifyTokenRecordsLatency(t *testing.T) {
	env := newTestEnv(t)
	_, login := loggedIn(t, env)

	if _, err := env.engine.VerifyToken(context.Background(), login.Token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	var total uint64
	for _, n := range env.engine.MetricsSnapshot().Histograms[MetricVerifyLatency] {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected one latency sample, got %d", total)
	}
}

func TestEnsureMirroredCreatesOnceThenReuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := &SecondaryUser{ID: "s-9", Email: "m@b.com", Username: "m", Name: "M", Role: RoleUser, Password: "$argon2id$fake"}

	first, err := env.engine.EnsureMirrored(ctx, user)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := env.engine.EnsureMirrored(ctx, user)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID || env.primary.count() != 1 {
		t.Fatalf("expected one mirror reused, got %q/%q with %d creates", first.ID, second.ID, env.primary.count())
	}
	if first.Email != user.Email || first.Role != user.Role || first.Password != user.Password {
		t.Fatalf("fields not copied: %+v", first)
	}

	env.primary.getErr = errStoreDown
	if _, err := env.engine.EnsureMirrored(ctx, user); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.keys["k-secret"] = &APIKey{ID: "k1", Secret: "k-secret"}
	ctx := context.Background()

	key, err := env.engine.ValidateAPIKey(ctx, "k-secret")
	if err != nil || key.ID != "k1" {
		t.Fatalf("expected key k1, got %+v %v", key, err)
	}
	if _, err := env.engine.ValidateAPIKey(ctx, "nope"); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("unknown key: expected ErrAPIKeyInvalid, got %v", err)
	}
	if _, err := env.engine.ValidateAPIKey(ctx, ""); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("empty key: expected ErrAPIKeyInvalid, got %v", err)
	}
}

func TestListUsersStripsSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "a@b.com", TOTPSecret: testTOTPSecret}, testPassword)
	env.secondary.seed(t, env.hasher, SecondaryUser{Email: "c@d.com"}, testPassword)

	users, err := env.engine.ListUsers(context.Background(), ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(users))
	}
	if _, err := env.engine.ListUsers(context.Background(), ListOptions{Offset: -1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestVerifyTokenRejectsStepUpToken(t *testing.T) {
	env := newTestEnv(t)
	_, temp := pendingLogin(t, env)

	if _, err := env.engine.VerifyToken(context.Background(), temp); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("step-up token: expected ErrTokenInvalid, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricTokenRejected]; got != 1 {
		t.Fatalf("expected 1 rejection counted, got %d", got)
	}
}

func TestVerifyTokenIsRepeatableAndLeavesSessionsAlone(t *testing.T) {
	env := newTestEnv(t)
	user, login := loggedIn(t, env)
	ctx := context.Background()

	before, err := env.engine.ListUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}

	first, err := env.engine.VerifyToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := env.engine.VerifyToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if first.Public() != second.Public() {
		t.Fatalf("verify results differ: %+v vs %+v", first.Public(), second.Public())
	}

	after, err := env.engine.ListUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(before) != 1 || len(after) != len(before) {
		t.Fatalf("session count changed: %d before, %d after", len(before), len(after))
	}
	if after[0].ID != before[0].ID {
		t.Fatalf("session replaced: %q -> %q", before[0].ID, after[0].ID)
	}
}
