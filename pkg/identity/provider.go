package identity

import "context"

// AuthResult is what every sign-in/sign-up path returns: the provider's
// opaque user id plus the token pair we keep for the session.
type AuthResult struct {
	Uid          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// TokenResult is a freshly minted ID token from the provider's token endpoint.
type TokenResult struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// Provider is the external identity service boundary. All credential
// verification happens on the provider side; this application only consumes
// the results.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error)
	SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*AuthResult, error)
	RefreshIDToken(ctx context.Context, refreshToken string) (*TokenResult, error)
}
