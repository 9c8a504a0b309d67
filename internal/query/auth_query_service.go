package query

import (
	"context"
	"log"
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/middleware"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/eaglebank/admin-service/shared/utils"
)

type AdminFinder interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// AuthQueryService handles admin login and token refresh. Neither mutates
// application state, so there is no command side.
type AuthQueryService struct {
	admins   AdminFinder
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthQueryService(admins AdminFinder, tokenTTL time.Duration) *AuthQueryService {
	return &AuthQueryService{admins: admins, tokenTTL: tokenTTL, now: time.Now}
}

// Login never tells an unknown username apart from a wrong password.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (cqrs.Session, error) {
	admin, err := s.admins.GetAdminByUsername(ctx, cmd.Username)
	if err != nil {
		if !apperror.IsNotFound(err) {
			log.Printf("AuthQueryService: admin lookup failed: %v", err)
			return cqrs.Session{}, err
		}
		return cqrs.Session{}, apperror.Unauthorized("invalid credentials")
	}
	if !utils.CheckPassword(cmd.Password, admin.PasswordHash) {
		log.Printf("AuthQueryService: rejected password for %s", cmd.Username)
		return cqrs.Session{}, apperror.Unauthorized("invalid credentials")
	}
	return s.issue(middleware.Principal{
		UserID:   admin.ID,
		Username: admin.Username,
		Roles:    admin.Roles,
	})
}

// RefreshToken trades a still-valid token for a new one with a fresh expiry.
func (s *AuthQueryService) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (cqrs.Session, error) {
	principal, err := middleware.ParseToken(cmd.Token)
	if err != nil {
		return cqrs.Session{}, apperror.Unauthorized("invalid token")
	}
	if !principal.HasRole(models.RoleAdmin) {
		return cqrs.Session{}, apperror.Forbidden("token does not belong to an admin")
	}
	return s.issue(principal)
}

func (s *AuthQueryService) issue(p middleware.Principal) (cqrs.Session, error) {
	expiresAt := s.now().Add(s.tokenTTL).Truncate(time.Second)
	token, err := middleware.IssueToken(p, s.tokenTTL)
	if err != nil {
		return cqrs.Session{}, apperror.Internal("failed to issue token", err)
	}
	return cqrs.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  p.Username,
		Roles:     p.Roles,
	}, nil
}
