package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/platform/config"
)

type googleOAuthService struct {
	oauth2Config *oauth2.Config
}

// NewGoogleOAuthService creates a new GoogleOAuthService from the application
// config.
func NewGoogleOAuthService(cfg *config.Config) portssvc.GoogleOAuthSvcFacade {
	return &googleOAuthService{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
	}
}

var _ portssvc.GoogleOAuthSvcFacade = (*googleOAuthService)(nil)

// AuthCodeURL builds the Google consent URL carrying the CSRF state.
func (s *googleOAuthService) AuthCodeURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state)
}

// ExchangeCode swaps the authorization code for tokens and fetches the user's
// verified email and display name from the userinfo endpoint.
func (s *googleOAuthService) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	token, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(s.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return "", "", fmt.Errorf("failed to create userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	if info.Email == "" || (info.VerifiedEmail != nil && !*info.VerifiedEmail) {
		return "", "", fmt.Errorf("google account email not verified: %w", apperrors.ErrValidation)
	}

	return info.Email, info.Name, nil
}
