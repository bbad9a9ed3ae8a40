package dto

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"omitempty,min=2"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	Uid         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
}

type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
	// Resumed is true when a generate call deferred by the sign-in gate was
	// picked up by this authentication.
	Resumed bool `json:"resumed"`
}

// SessionResponse reports the current-session view: Loading is true only
// until the session provider has published its first state notification.
type SessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	Loading       bool     `json:"loading"`
	User          *UserDTO `json:"user,omitempty"`
}

// TokenResponse carries a freshly minted bearer token, or null when no
// session exists or minting failed. Minting failures are never errors.
type TokenResponse struct {
	Token *string `json:"token"`
}
