// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/pkg/identity"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionID uuid.UUID)
	Current(ctx context.Context, sessionID uuid.UUID) *dto.SessionResponse
	Token(ctx context.Context, sessionID uuid.UUID) *dto.TokenResponse
}

type authService struct {
	provider identity.Provider
	sessions ISessionService
}

func NewAuthService(provider identity.Provider, sessions ISessionService) IAuthService {
	return &authService{
		provider: provider,
		sessions: sessions,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	res, err := s.provider.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		log.Printf("[Auth Service] Sign-up rejected for %s: %v", req.Email, err)
		return nil, errors.New(identity.Friendly(err))
	}

	session := s.sessions.Create(ctx, res, entity.SessionProviderPassword)
	log.Printf("[Auth Service] ✅ New account registered: %s (session %s)", res.Email, session.Id)

	return s.loginResponse(session)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	res, err := s.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		log.Printf("[Auth Service] Sign-in rejected for %s: %v", req.Email, err)
		return nil, errors.New(identity.Friendly(err))
	}

	session := s.sessions.Create(ctx, res, entity.SessionProviderPassword)
	log.Printf("[Auth Service] ✅ Signed in: %s (session %s)", res.Email, session.Id)

	return s.loginResponse(session)
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) {
	s.sessions.Destroy(ctx, sessionID)
}

func (s *authService) Current(ctx context.Context, sessionID uuid.UUID) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Loading: !s.sessions.Ready(),
	}

	session, found := s.sessions.Current(ctx, sessionID)
	if !found {
		return res
	}

	res.Authenticated = true
	res.User = &dto.UserDTO{
		Uid:         session.Uid,
		Email:       session.Email,
		DisplayName: session.DisplayName,
		Provider:    string(session.Provider),
	}
	return res
}

func (s *authService) Token(ctx context.Context, sessionID uuid.UUID) *dto.TokenResponse {
	token, ok := s.sessions.Token(ctx, sessionID)
	if !ok {
		return &dto.TokenResponse{Token: nil}
	}
	return &dto.TokenResponse{Token: &token}
}

func (s *authService) loginResponse(session *entity.Session) (*dto.LoginResponse, error) {
	signed, err := SignSessionToken(session)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: signed,
		User: dto.UserDTO{
			Uid:         session.Uid,
			Email:       session.Email,
			DisplayName: session.DisplayName,
			Provider:    string(session.Provider),
		},
	}, nil
}

// SignSessionToken issues the app's own bearer token referencing the
// in-memory session. Distinct from the identity provider's ID token, which
// is minted on demand via the token endpoint.
func SignSessionToken(session *entity.Session) (string, error) {
	claims := jwt.MapClaims{
		"session_id": session.Id.String(),
		"email":      session.Email,
		"exp":        time.Now().Add(time.Hour * 24).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return token.SignedString([]byte(secret))
}
