package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"stayhub/internal/cache"
	"stayhub/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute

	blacklistKeyPrefix  = "jti:"
	verifyCodeKeyPrefix = "verify:"
	resetCodeKeyPrefix  = "reset:"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service is the token rotation authority plus account management. The
// cache is the single source of truth for "has this refresh token
// already been used": a JTI present in it means rotated, reject.
type Service struct {
	users      UserRepository
	tokens     tokenService
	store      cache.Store
	mailer     Mailer
	codePepper string
	refreshTTL time.Duration
	verifyTTL  time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewService(
	users UserRepository,
	tokens tokenService,
	store cache.Store,
	mailer Mailer,
	codePepper string,
	refreshTTL, verifyTTL, resetTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		store:      store,
		mailer:     mailer,
		codePepper: codePepper,
		refreshTTL: refreshTTL,
		verifyTTL:  verifyTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendCode(ctx, email, verifyCodeKeyPrefix, s.verifyTTL, s.mailer.SendVerificationCode); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.consumeCode(ctx, verifyCodeKeyPrefix+email, req.Code); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	return s.users.MarkEmailVerified(ctx, user.ID)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, nil, ErrAccountLocked
	}
	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLogins++
		if user.FailedLogins >= maxFailedLoginAttempts {
			locked := now.Add(lockoutDuration)
			user.LockedUntil = &locked
		}
		if updateErr := s.users.Update(ctx, user); updateErr != nil {
			return nil, nil, updateErr
		}
		if user.LockedUntil != nil {
			return nil, nil, ErrAccountLocked
		}
		return nil, nil, ErrInvalidCredentials
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		user.FailedLogins = 0
		user.LockedUntil = nil
		if err := s.users.Update(ctx, user); err != nil {
			return nil, nil, err
		}
	}

	pair, err := s.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// Issue mints a fresh access/refresh pair. The refresh token's absolute
// expiration is fixed here; rotations never extend it.
func (s *Service) Issue(user *domain.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.GenerateRefreshToken(user.ID, string(user.Role), uuid.NewString(), s.now().Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented JTI is
// blacklisted before the new pair is minted, so the token is single-use
// even across server instances; the new refresh token inherits the old
// one's absolute expiration unchanged.
func (s *Service) Rotate(ctx context.Context, refreshRaw string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshRaw)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	expiresAt := claims.ExpiresAt.Time
	remaining := expiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil, ErrInvalidRefreshToken
	}

	// Claiming the JTI must be one atomic step: concurrent presentations
	// of the same token race on this key and exactly one wins.
	claimed, err := s.store.SetIfAbsent(ctx, blacklistKeyPrefix+claims.ID, "used", remaining)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Printf("level=warn msg=refresh token reuse detected user_id=%d jti=%s", claims.UserID, claims.ID)
		return nil, ErrTokenReused
	}

	access, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.Role, uuid.NewString(), expiresAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke blacklists the presented refresh token's JTI (logout). An
// already-invalid token is not an error.
func (s *Service) Revoke(ctx context.Context, refreshRaw string) error {
	claims, err := s.tokens.ValidateRefreshToken(refreshRaw)
	if err != nil {
		return nil
	}

	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	return s.store.Set(ctx, blacklistKeyPrefix+claims.ID, "revoked", remaining)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Do not reveal whether the address is registered.
			return nil
		}
		return err
	}
	return s.sendCode(ctx, email, resetCodeKeyPrefix, s.resetTTL, s.mailer.SendPasswordResetCode)
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.consumeCode(ctx, resetCodeKeyPrefix+email, req.Code); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *Service) sendCode(ctx context.Context, email, prefix string, ttl time.Duration, send func(context.Context, string, string) error) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, prefix+email, s.hashCode(code), ttl); err != nil {
		return err
	}
	return send(ctx, email, code)
}

func (s *Service) consumeCode(ctx context.Context, key, code string) error {
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if stored != s.hashCode(code) {
		return ErrInvalidCode
	}
	return s.store.Delete(ctx, key)
}

func (s *Service) hashCode(code string) string {
	sum := sha256.Sum256([]byte(code + s.codePepper))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
