package auth

import (
	"context"
	"time"

	"stayhub/internal/domain"
	jwtsvc "stayhub/internal/pkg/jwt"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	MarkEmailVerified(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type tokenService interface {
	GenerateAccessToken(userID int64, role string) (string, error)
	GenerateRefreshToken(userID int64, role, jti string, expiresAt time.Time) (string, error)
	ValidateRefreshToken(tokenStr string) (*jwtsvc.RefreshClaims, error)
}

// Mailer delivers verification and reset codes. Delivery is out of
// scope for this service; implementations may just log.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}
