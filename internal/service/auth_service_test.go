package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/internal/repository/memory"
	"github.com/ryounan4/Cramify/pkg/identity"
)

func newAuthService(provider identity.Provider) (IAuthService, ISessionService) {
	sessions := NewSessionService(memory.NewSessionRepository(time.Minute), provider)
	return NewAuthService(provider, sessions), sessions
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("invalid session id %q: %v", id, err)
	}
	return parsed
}

func TestLoginSuccessIssuesSessionToken(t *testing.T) {
	svc, sessions := newAuthService(&fakeProvider{
		signInRes: &identity.AuthResult{
			Uid:          "uid-1",
			Email:        "student@example.com",
			DisplayName:  "Student",
			RefreshToken: "refresh-1",
		},
	})

	res, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "student@example.com",
		Password: "hunter22",
	})

	assert.NoError(t, err)
	assert.Equal(t, "student@example.com", res.User.Email)
	assert.Equal(t, string(entity.SessionProviderPassword), res.User.Provider)

	// The access token must reference a live session.
	sessionID, ok := serverutils.ParseSessionToken(res.AccessToken)
	assert.True(t, ok)
	session, found := sessions.Current(context.Background(), mustParse(t, sessionID))
	assert.True(t, found)
	assert.Equal(t, "uid-1", session.Uid)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(&fakeProvider{
		signInErr: &identity.Error{Code: identity.CodeInvalidPassword, StatusCode: 400},
	})

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "student@example.com",
		Password: "wrong",
	})

	assert.EqualError(t, err, "Incorrect password. Please try again.")
}

func TestLoginUnknownProviderCode(t *testing.T) {
	svc, _ := newAuthService(&fakeProvider{
		signInErr: &identity.Error{Code: "TOO_MANY_ATTEMPTS_TRY_LATER", StatusCode: 400},
	})

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "student@example.com",
		Password: "hunter22",
	})

	assert.EqualError(t, err, "Sign-in failed. Please try again.")
}

func TestRegisterExistingEmail(t *testing.T) {
	svc, _ := newAuthService(&fakeProvider{
		signUpErr: &identity.Error{Code: identity.CodeEmailExists, StatusCode: 400},
	})

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "student@example.com",
		Password: "hunter22",
		FullName: "Student",
	})

	assert.EqualError(t, err, "An account with this email already exists. Please sign in instead.")
}

func TestCurrentReportsLoadingAndAuthState(t *testing.T) {
	provider := &fakeProvider{
		signInRes: &identity.AuthResult{Uid: "uid-1", Email: "student@example.com"},
	}
	svc, _ := newAuthService(provider)

	anonymous := svc.Current(context.Background(), uuid.Nil)
	assert.False(t, anonymous.Loading)
	assert.False(t, anonymous.Authenticated)
	assert.Nil(t, anonymous.User)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "student@example.com", Password: "pw"})
	assert.NoError(t, err)
	sessionID, _ := serverutils.ParseSessionToken(login.AccessToken)

	current := svc.Current(context.Background(), mustParse(t, sessionID))
	assert.True(t, current.Authenticated)
	assert.Equal(t, "student@example.com", current.User.Email)
}

func TestTokenEndpointSwallowsMintFailure(t *testing.T) {
	provider := &fakeProvider{
		signInRes:  &identity.AuthResult{Uid: "uid-1", Email: "student@example.com", RefreshToken: "refresh-1"},
		refreshErr: &identity.Error{Code: "TOKEN_EXPIRED", StatusCode: 400},
	}
	svc, _ := newAuthService(provider)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "student@example.com", Password: "pw"})
	assert.NoError(t, err)
	sessionID, _ := serverutils.ParseSessionToken(login.AccessToken)

	res := svc.Token(context.Background(), mustParse(t, sessionID))
	assert.Nil(t, res.Token)
}
