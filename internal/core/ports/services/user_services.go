package services

import (
	"context"
	"time"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/kabusim/kabusim_backend/internal/dto"
)

// UserSvcFacade manages users and credential verification.
type UserSvcFacade interface {
	RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)
	AuthenticateUser(ctx context.Context, email string, password string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	// FindOrCreateGoogleUser resolves the local user for a Google identity,
	// creating one on first login.
	FindOrCreateGoogleUser(ctx context.Context, email string, name string) (*domain.User, error)
}

// TokenSvcFacade issues access tokens for authenticated users.
type TokenSvcFacade interface {
	GenerateAccessToken(userID string) (token string, expiresAt time.Time, err error)
}

// GoogleOAuthSvcFacade handles the Google OAuth authorization-code flow.
type GoogleOAuthSvcFacade interface {
	AuthCodeURL(state string) string
	// ExchangeCode swaps the authorization code for the Google user's verified
	// email and display name.
	ExchangeCode(ctx context.Context, code string) (email string, name string, err error)
}
