package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/repository"
	"github.com/lshigami/polls/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// lastKey pulls the confirmation key out of the most recent email.
func (m *recordingMailer) lastKey(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("no email was sent")
	}
	body := m.sent[len(m.sent)-1].body
	_, rest, ok := strings.Cut(body, "/accounts/confirm-email/")
	if !ok {
		t.Fatalf("no confirmation link in %q", body)
	}
	return strings.TrimSpace(rest)
}

func newAccountService(db *gorm.DB, mailer Mailer, now Clock) AccountService {
	return NewAccountService(repository.NewUserRepository(db), mailer, testutil.GetTestConfig(), now)
}

func TestSignupAndConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mailer := &recordingMailer{}
	svc := newAccountService(db, mailer, NewClock())
	ctx := context.Background()

	user, err := svc.Signup(ctx, dto.SignupForm{Username: "alice", Email: "Alice@Example.org", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}
	if user.EmailVerified {
		t.Error("new accounts must not be verified")
	}
	if user.Email != "alice@example.org" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "alice@example.org" {
		t.Fatalf("expected one verification email, got %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].body, "http://testserver/accounts/confirm-email/") {
		t.Errorf("link should use the site URL: %q", mailer.sent[0].body)
	}

	confirmed, err := svc.ConfirmEmail(ctx, mailer.lastKey(t))
	if err != nil {
		t.Fatal(err)
	}
	if !confirmed.EmailVerified || confirmed.ID != user.ID {
		t.Errorf("unexpected confirmed user %+v", confirmed)
	}

	if _, err := svc.Signup(ctx, dto.SignupForm{Username: "alice", Email: "new@example.org", Password: "password123"}); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestConfirmEmail_Rejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mailer := &recordingMailer{}
	issued := time.Now().UTC()
	svc := newAccountService(db, mailer, func() time.Time { return issued })
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "bob", "password123", false, false)
	if err := svc.SendVerification(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	key := mailer.lastKey(t)

	later := newAccountService(db, mailer, func() time.Time { return issued.Add(2 * time.Hour) })
	if _, err := later.ConfirmEmail(ctx, key); !errors.Is(err, ErrInvalidVerificationKey) {
		t.Errorf("expired key: expected ErrInvalidVerificationKey, got %v", err)
	}
	if _, err := svc.ConfirmEmail(ctx, key+"x"); !errors.Is(err, ErrInvalidVerificationKey) {
		t.Errorf("tampered key: expected ErrInvalidVerificationKey, got %v", err)
	}
	if _, err := svc.ConfirmEmail(ctx, "not-a-key"); !errors.Is(err, ErrInvalidVerificationKey) {
		t.Errorf("garbage key: expected ErrInvalidVerificationKey, got %v", err)
	}

	if err := db.Model(user).Update("email", "changed@example.org").Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConfirmEmail(ctx, key); !errors.Is(err, ErrInvalidVerificationKey) {
		t.Errorf("stale address: expected ErrInvalidVerificationKey, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db, &recordingMailer{}, NewClock())
	ctx := context.Background()

	testutil.CreateUser(t, db, "carol", "password123", true, false)

	if _, err := svc.Authenticate(ctx, "carol@example.org", "password123"); err != nil {
		t.Errorf("expected login by email to succeed, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "carol", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate_EmailCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db, &recordingMailer{}, NewClock())
	ctx := context.Background()

	created, err := svc.Signup(ctx, dto.SignupForm{Username: "dora", Email: "Dora@Example.org", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}
	for _, login := range []string{"Dora@Example.org", "dora@example.org", "DORA@EXAMPLE.ORG"} {
		user, err := svc.Authenticate(ctx, login, "password123")
		if err != nil {
			t.Errorf("login %q: %v", login, err)
			continue
		}
		if user.ID != created.ID {
			t.Errorf("login %q returned user %d", login, user.ID)
		}
	}
}

func TestDummyHash_MatchesRealCost(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash())
	if err != nil {
		t.Fatal(err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("unknown logins should cost the same as real ones: got %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestEnsureStaff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db, &recordingMailer{}, NewClock())
	ctx := context.Background()

	if err := svc.EnsureStaff(ctx, config.Admin{}); err != nil {
		t.Fatalf("no admin configured should be a no-op, got %v", err)
	}
	if err := svc.EnsureStaff(ctx, config.Admin{Username: "admin"}); err == nil {
		t.Error("expected an error without a password")
	}

	admin := config.Admin{Username: "admin", Email: "admin@example.org", Password: "s3cret-pass"}
	if err := svc.EnsureStaff(ctx, admin); err != nil {
		t.Fatal(err)
	}
	// second run promotes the existing row instead of inserting
	if err := svc.EnsureStaff(ctx, admin); err != nil {
		t.Fatal(err)
	}

	user, err := svc.Authenticate(ctx, "admin", "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !user.IsStaff || !user.EmailVerified {
		t.Errorf("expected a verified staff account, got %+v", user)
	}
}
