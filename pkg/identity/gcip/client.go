package gcip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryounan4/Cramify/pkg/identity"
)

const (
	defaultBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL = "https://securetoken.googleapis.com/v1"
)

// Client talks to the hosted Google Identity Toolkit REST API.
type Client struct {
	APIKey   string
	BaseURL  string
	TokenURL string
	HTTP     *http.Client
}

// Ensure Client implements identity.Provider
var _ identity.Provider = &Client{}

func NewClient(apiKey, baseURL, tokenURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &Client{
		APIKey:   apiKey,
		BaseURL:  baseURL,
		TokenURL: tokenURL,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInWithIdpRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
	ReturnIdpCredential bool   `json:"returnIdpCredential"`
}

type authResponse struct {
	LocalId      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IdToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Interface Implementation ---

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	payload := signInRequest{Email: email, Password: password, ReturnSecureToken: true}
	resp, err := c.post(ctx, "accounts:signInWithPassword", payload)
	if err != nil {
		return nil, err
	}
	return toAuthResult(resp), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*identity.AuthResult, error) {
	payload := signUpRequest{Email: email, Password: password, DisplayName: displayName, ReturnSecureToken: true}
	resp, err := c.post(ctx, "accounts:signUp", payload)
	if err != nil {
		return nil, err
	}
	return toAuthResult(resp), nil
}

func (c *Client) SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*identity.AuthResult, error) {
	payload := signInWithIdpRequest{
		PostBody:            fmt.Sprintf("id_token=%s&providerId=%s", url.QueryEscape(idToken), url.QueryEscape(providerID)),
		RequestURI:          requestURI,
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	}
	resp, err := c.post(ctx, "accounts:signInWithIdp", payload)
	if err != nil {
		return nil, err
	}
	return toAuthResult(resp), nil
}

func (c *Client) RefreshIDToken(ctx context.Context, refreshToken string) (*identity.TokenResult, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", c.TokenURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseError(httpResp.StatusCode, bodyBytes)
	}

	// The secure token endpoint uses snake_case keys, unlike the accounts API.
	var tokenResp struct {
		IdToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	expires, _ := strconv.ParseInt(tokenResp.ExpiresIn, 10, 64)
	return &identity.TokenResult{
		IDToken:      tokenResp.IdToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    expires,
	}, nil
}

// --- Helpers ---

func (c *Client) post(ctx context.Context, action string, payload interface{}) (*authResponse, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.BaseURL, action, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseError(httpResp.StatusCode, bodyBytes)
	}

	var resp authResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func parseError(status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &identity.Error{Code: identity.NormalizeCode(errResp.Error.Message), StatusCode: status}
	}
	return &identity.Error{Code: "", StatusCode: status}
}

func toAuthResult(resp *authResponse) *identity.AuthResult {
	expires, _ := strconv.ParseInt(resp.ExpiresIn, 10, 64)
	return &identity.AuthResult{
		Uid:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expires,
	}
}
