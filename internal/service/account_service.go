package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jinzhu/copier"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/model"
	"github.com/lshigami/polls/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationAudience = "email-confirmation"

// dummyHash is compared against when the login matches no account so that
// unknown and known logins take the same bcrypt time.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("polls-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

type AccountService interface {
	Authenticate(ctx context.Context, login, password string) (*dto.CurrentUser, error)
	Signup(ctx context.Context, form dto.SignupForm) (*dto.CurrentUser, error)
	GetUser(ctx context.Context, id uint) (*dto.CurrentUser, error)
	SendVerification(ctx context.Context, userID uint) error
	ConfirmEmail(ctx context.Context, key string) (*dto.CurrentUser, error)
	EnsureStaff(ctx context.Context, admin config.Admin) error
}

type accountService struct {
	userRepo repository.UserRepository
	mailer   Mailer
	cfg      *config.Config
	now      Clock
}

func NewAccountService(userRepo repository.UserRepository, mailer Mailer, cfg *config.Config, now Clock) AccountService {
	return &accountService{userRepo: userRepo, mailer: mailer, cfg: cfg, now: now}
}

type verificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *accountService) Authenticate(ctx context.Context, login, password string) (*dto.CurrentUser, error) {
	user, err := s.userRepo.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Info().Str("login", login).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	return toCurrentUser(user)
}

func (s *accountService) Signup(ctx context.Context, form dto.SignupForm) (*dto.CurrentUser, error) {
	email := strings.ToLower(strings.TrimSpace(form.Email))
	exists, err := s.userRepo.Exists(ctx, form.Username, email)
	if err != nil {
		return nil, fmt.Errorf("error checking existing users: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user := model.User{Username: form.Username, Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		log.Error().Err(err).Str("username", form.Username).Msg("Failed to create user")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}
	log.Info().Uint("userID", user.ID).Str("username", user.Username).Msg("User signed up")

	if err := s.sendVerification(ctx, &user); err != nil {
		// the account exists; the user can ask for another email
		log.Warn().Err(err).Uint("userID", user.ID).Msg("Failed to send verification email")
	}
	return toCurrentUser(&user)
}

func (s *accountService) GetUser(ctx context.Context, id uint) (*dto.CurrentUser, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCurrentUser(user)
}

func (s *accountService) SendVerification(ctx context.Context, userID uint) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user %d: %w", userID, err)
	}
	if user.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

func (s *accountService) sendVerification(ctx context.Context, user *model.User) error {
	key, err := s.verificationKey(user)
	if err != nil {
		return err
	}
	link := strings.TrimRight(s.cfg.Server.SiteURL, "/") + "/accounts/confirm-email/" + key
	body := fmt.Sprintf("Hello %s,\n\nTo confirm this is your email address, go to %s\n", user.Username, link)
	return s.mailer.Send(ctx, user.Email, "Please confirm your email address", body)
}

func (s *accountService) verificationKey(user *model.User) (string, error) {
	now := s.now()
	claims := verificationClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{verificationAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Verification.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Verification.Secret))
}

func (s *accountService) ConfirmEmail(ctx context.Context, key string) (*dto.CurrentUser, error) {
	var claims verificationClaims
	_, err := jwt.ParseWithClaims(key, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Verification.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(verificationAudience),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		log.Info().Err(err).Msg("Rejected email confirmation key")
		return nil, ErrInvalidVerificationKey
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidVerificationKey
	}
	user, err := s.userRepo.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerificationKey
		}
		return nil, fmt.Errorf("error loading user %d: %w", id, err)
	}
	// a key issued for an old address must not confirm the new one
	if user.Email != claims.Email {
		return nil, ErrInvalidVerificationKey
	}

	if !user.EmailVerified {
		if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("error confirming email: %w", err)
		}
		user.EmailVerified = true
		log.Info().Uint("userID", user.ID).Msg("Email confirmed")
	}
	return toCurrentUser(user)
}

// EnsureStaff creates or promotes the bootstrap staff account. It does
// nothing when no admin username is configured.
func (s *accountService) EnsureStaff(ctx context.Context, admin config.Admin) error {
	if admin.Username == "" {
		return nil
	}
	if admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}

	user, err := s.userRepo.FindByLogin(ctx, admin.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error loading admin user: %w", err)
	}
	if user == nil {
		user = &model.User{Username: admin.Username, Email: admin.Email}
		if user.Email == "" {
			user.Email = admin.Username + "@localhost"
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.IsStaff = true
	user.EmailVerified = true

	if user.ID == 0 {
		err = s.userRepo.Create(ctx, user)
	} else {
		err = s.userRepo.Update(ctx, user)
	}
	if err != nil {
		return fmt.Errorf("error saving admin user: %w", err)
	}
	log.Info().Str("username", user.Username).Msg("Staff account ready")
	return nil
}

func toCurrentUser(user *model.User) (*dto.CurrentUser, error) {
	var current dto.CurrentUser
	if err := copier.Copy(&current, user); err != nil {
		return nil, fmt.Errorf("error preparing user: %w", err)
	}
	return &current, nil
}
