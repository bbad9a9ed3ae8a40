package gcip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryounan4/Cramify/pkg/identity"

	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient("test-key", srv.URL, srv.URL)
	return c, srv
}

func TestSignInWithPassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))

			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "student@example.com", req["email"])
			assert.Equal(t, true, req["returnSecureToken"])

			json.NewEncoder(w).Encode(map[string]string{
				"localId":      "uid-123",
				"email":        "student@example.com",
				"displayName":  "Student",
				"idToken":      "id-token",
				"refreshToken": "refresh-token",
				"expiresIn":    "3600",
			})
		})
		defer srv.Close()

		res, err := c.SignInWithPassword(context.Background(), "student@example.com", "secret123")
		assert.NoError(t, err)
		assert.Equal(t, "uid-123", res.Uid)
		assert.Equal(t, "id-token", res.IDToken)
		assert.Equal(t, "refresh-token", res.RefreshToken)
		assert.Equal(t, int64(3600), res.ExpiresIn)
	})

	t.Run("Wrong password surfaces provider code", func(t *testing.T) {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": 400, "message": "INVALID_PASSWORD"},
			})
		})
		defer srv.Close()

		_, err := c.SignInWithPassword(context.Background(), "student@example.com", "nope")
		assert.Error(t, err)

		var pErr *identity.Error
		assert.ErrorAs(t, err, &pErr)
		assert.Equal(t, identity.CodeInvalidPassword, pErr.Code)
		assert.Equal(t, "Incorrect password. Please try again.", identity.Friendly(err))
	})
}

func TestSignUp(t *testing.T) {
	t.Run("Weak password with detail suffix", func(t *testing.T) {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/accounts:signUp", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":    400,
					"message": "WEAK_PASSWORD : Password should be at least 6 characters",
				},
			})
		})
		defer srv.Close()

		_, err := c.SignUp(context.Background(), "student@example.com", "ab", "Student")
		var pErr *identity.Error
		assert.ErrorAs(t, err, &pErr)
		assert.Equal(t, identity.CodeWeakPassword, pErr.Code)
	})
}

func TestRefreshIDToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/token", r.URL.Path)
			r.ParseForm()
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))

			json.NewEncoder(w).Encode(map[string]string{
				"id_token":      "fresh-id-token",
				"refresh_token": "new-refresh",
				"expires_in":    "3600",
			})
		})
		defer srv.Close()

		res, err := c.RefreshIDToken(context.Background(), "old-refresh")
		assert.NoError(t, err)
		assert.Equal(t, "fresh-id-token", res.IDToken)
		assert.Equal(t, "new-refresh", res.RefreshToken)
	})

	t.Run("Expired refresh token", func(t *testing.T) {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": 400, "message": "TOKEN_EXPIRED"},
			})
		})
		defer srv.Close()

		_, err := c.RefreshIDToken(context.Background(), "stale")
		assert.Error(t, err)
	})
}
