package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	t.Run("Posts every file under the files field", func(t *testing.T) {
		pdf := []byte("%PDF-1.4 generated")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.Equal(t, "Bearer id-token", r.Header.Get("Authorization"))

			err := r.ParseMultipartForm(64 << 20)
			assert.NoError(t, err)

			parts := r.MultipartForm.File["files"]
			assert.Len(t, parts, 2)
			assert.Equal(t, "lecture1.pdf", parts[0].Filename)
			assert.Equal(t, "lecture2.pdf", parts[1].Filename)

			w.Header().Set("Content-Type", "application/pdf")
			w.Write(pdf)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 10*time.Second)
		result, err := c.Generate(context.Background(), []File{
			{Name: "lecture1.pdf", Content: []byte("%PDF-1.4 one")},
			{Name: "lecture2.pdf", Content: []byte("%PDF-1.4 two")},
		}, "id-token")

		assert.NoError(t, err)
		assert.Equal(t, pdf, result)
	})

	t.Run("No Authorization header without a token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 10*time.Second)
		_, err := c.Generate(context.Background(), []File{{Name: "a.pdf", Content: []byte("%PDF-1.4")}}, "")
		assert.NoError(t, err)
	})

	t.Run("Non-2xx becomes a StatusError with parsed detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "Pipeline error: compile failed"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 10*time.Second)
		_, err := c.Generate(context.Background(), []File{{Name: "a.pdf", Content: []byte("%PDF-1.4")}}, "")

		var sErr *StatusError
		assert.ErrorAs(t, err, &sErr)
		assert.Equal(t, 500, sErr.Code)
		assert.Equal(t, "Internal Server Error", sErr.Status)
		assert.Equal(t, "Pipeline error: compile failed", sErr.Detail)
	})

	t.Run("Transport failure returns a plain error", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", time.Second)
		_, err := c.Generate(context.Background(), []File{{Name: "a.pdf", Content: []byte("%PDF-1.4")}}, "")
		assert.Error(t, err)

		var sErr *StatusError
		assert.False(t, errors.As(err, &sErr), "transport failures must not be StatusError")
	})
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.NoError(t, c.Health(context.Background()))
}
