package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ryounan4/Cramify/internal/bootstrap"
	"github.com/ryounan4/Cramify/internal/config"
	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// fakeIdentity mimics the identity provider's REST surface well enough for
// the sign-in paths exercised here.
func fakeIdentity(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "signInWithPassword"):
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			json.NewDecoder(r.Body).Decode(&req)

			if req.Password != "hunter22" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"code": 400, "message": "INVALID_PASSWORD"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"localId":      "uid-1",
				"email":        req.Email,
				"displayName":  "Student",
				"idToken":      "identity-id-token",
				"refreshToken": "identity-refresh-token",
				"expiresIn":    "3600",
			})
		case strings.Contains(r.URL.Path, "token"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id_token":      "identity-id-token-2",
				"refresh_token": "identity-refresh-token",
				"expires_in":    "3600",
			})
		default:
			t.Errorf("unexpected identity request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("%PDF-1.4 test content"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func formCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == serverutils.FormCookieName {
			return c
		}
	}
	return nil
}

func TestGenerateGateFlow(t *testing.T) {
	var backendHits atomic.Int32
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Write([]byte(`{"status": "ok"}`))
			return
		}
		backendHits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 generated cheat sheet"))
	}))
	defer backendSrv.Close()

	identitySrv := fakeIdentity(t)
	defer identitySrv.Close()

	t.Setenv("BACKEND_BASE_URL", backendSrv.URL)
	t.Setenv("IDENTITY_BASE_URL", identitySrv.URL+"/v1")
	t.Setenv("IDENTITY_TOKEN_URL", identitySrv.URL+"/v1")
	t.Setenv("IDENTITY_API_KEY", "test-key")
	t.Setenv("JWT_SECRET", "integration-secret")
	t.Setenv("LOG_FILE_PATH", t.TempDir()+"/app.log.csv")

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	var cookie *http.Cookie

	t.Run("Select files", func(t *testing.T) {
		body, contentType := multipartBody(t, "lecture1.pdf", "lecture2.pdf")
		req := httptest.NewRequest("PUT", "/api/files", body)
		req.Header.Set("Content-Type", contentType)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		cookie = formCookie(resp)
		assert.NotNil(t, cookie, "a form cookie must be minted")

		var result serverutils.BaseResponse[dto.StateResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Success)
		assert.Len(t, result.Data.Files, 2)
		assert.Equal(t, "idle", result.Data.Status)
	})

	t.Run("Generate without session opens gate", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/generate", nil)
		req.AddCookie(cookie)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, int32(0), backendHits.Load())

		stateReq := httptest.NewRequest("GET", "/api/state", nil)
		stateReq.AddCookie(cookie)
		stateResp, _ := app.Test(stateReq, -1)

		var state serverutils.BaseResponse[dto.StateResponse]
		json.NewDecoder(stateResp.Body).Decode(&state)
		assert.True(t, state.Data.GateOpen)
	})

	t.Run("Wrong password gets friendly message", func(t *testing.T) {
		body, _ := json.Marshal(dto.LoginRequest{Email: "student@example.com", Password: "wrong"})
		req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)

		var result serverutils.BaseResponse[any]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Incorrect password. Please try again.", result.Message)
	})

	var artifactURL string

	t.Run("Login resumes the deferred generate", func(t *testing.T) {
		body, _ := json.Marshal(dto.LoginRequest{Email: "student@example.com", Password: "hunter22"})
		req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.BaseResponse[dto.LoginResponse]
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Success)
		assert.True(t, result.Data.Resumed)
		assert.NotEmpty(t, result.Data.AccessToken)

		// The resumed generate runs in the background; poll until it lands.
		deadline := time.Now().Add(5 * time.Second)
		var state serverutils.BaseResponse[dto.StateResponse]
		for time.Now().Before(deadline) {
			stateReq := httptest.NewRequest("GET", "/api/state", nil)
			stateReq.AddCookie(cookie)
			stateResp, _ := app.Test(stateReq, -1)
			json.NewDecoder(stateResp.Body).Decode(&state)
			if state.Data.Status == "succeeded" {
				break
			}
			time.Sleep(50 * time.Millisecond)
		}

		assert.Equal(t, "succeeded", state.Data.Status)
		assert.False(t, state.Data.GateOpen)
		assert.Equal(t, int32(1), backendHits.Load(), "the deferred generate must run exactly once")
		artifactURL = state.Data.ArtifactURL
	})

	t.Run("Download artifact", func(t *testing.T) {
		assert.NotEmpty(t, artifactURL)
		req := httptest.NewRequest("GET", artifactURL, nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "cramify-cheatsheet.pdf")

		pdf, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte("%PDF-1.4 generated cheat sheet"), pdf)
	})

	t.Run("Reset returns to idle", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/reset", nil)
		req.AddCookie(cookie)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var state serverutils.BaseResponse[dto.StateResponse]
		json.NewDecoder(resp.Body).Decode(&state)
		assert.Equal(t, "idle", state.Data.Status)
		assert.Empty(t, state.Data.Files)

		// The released artifact is gone.
		dlReq := httptest.NewRequest("GET", artifactURL, nil)
		dlResp, _ := app.Test(dlReq, -1)
		assert.Equal(t, 404, dlResp.StatusCode)
	})
}

func TestDismissGateFlow(t *testing.T) {
	var backendHits atomic.Int32
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendHits.Add(1)
	}))
	defer backendSrv.Close()

	identitySrv := fakeIdentity(t)
	defer identitySrv.Close()

	t.Setenv("BACKEND_BASE_URL", backendSrv.URL)
	t.Setenv("IDENTITY_BASE_URL", identitySrv.URL+"/v1")
	t.Setenv("IDENTITY_TOKEN_URL", identitySrv.URL+"/v1")
	t.Setenv("JWT_SECRET", "integration-secret")
	t.Setenv("LOG_FILE_PATH", t.TempDir()+"/app.log.csv")

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)
	app := server.New(cfg, container).GetApp()

	body, contentType := multipartBody(t, "notes.pdf")
	req := httptest.NewRequest("PUT", "/api/files", body)
	req.Header.Set("Content-Type", contentType)
	resp, _ := app.Test(req, -1)
	cookie := formCookie(resp)

	genReq := httptest.NewRequest("POST", "/api/generate", nil)
	genReq.AddCookie(cookie)
	genResp, _ := app.Test(genReq, -1)
	assert.Equal(t, 401, genResp.StatusCode)

	dismissReq := httptest.NewRequest("POST", "/api/generate/dismiss", nil)
	dismissReq.AddCookie(cookie)
	dismissResp, _ := app.Test(dismissReq, -1)
	assert.Equal(t, 200, dismissResp.StatusCode)

	// A sign-in after dismissal must NOT replay the abandoned generate.
	loginBody, _ := json.Marshal(dto.LoginRequest{Email: "student@example.com", Password: "hunter22"})
	loginReq := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginReq.AddCookie(cookie)
	loginResp, _ := app.Test(loginReq, -1)
	assert.Equal(t, 200, loginResp.StatusCode)

	var result serverutils.BaseResponse[dto.LoginResponse]
	json.NewDecoder(loginResp.Body).Decode(&result)
	assert.False(t, result.Data.Resumed)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), backendHits.Load())
}
