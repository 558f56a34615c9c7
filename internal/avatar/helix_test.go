package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHelixServer(t *testing.T, handler http.HandlerFunc) *Helix {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHelix("token", "client", zerolog.Nop(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestResolveReturnsProfileImage(t *testing.T) {
	h := newHelixServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "client", r.Header.Get("Client-Id"))
		w.Write([]byte(`{"data":[{"id":"42","profile_image_url":"https://cdn.example.com/42.png"}]}`))
	})

	assert.Equal(t, "https://cdn.example.com/42.png", h.Resolve(context.Background(), "42"))
}

func TestResolveFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unknown user",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[]}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHelixServer(t, tt.handler)
			assert.Equal(t, DefaultURL, h.Resolve(context.Background(), "42"))
		})
	}
}

func TestResolveEmptyUserSkipsLookup(t *testing.T) {
	called := false
	h := newHelixServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.Equal(t, DefaultURL, h.Resolve(context.Background(), ""))
	assert.False(t, called)
}

func TestLookupReportsErrors(t *testing.T) {
	h := newHelixServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid token"))
	})

	_, err := h.Lookup(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWithFallback(t *testing.T) {
	h := newHelixServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})
	WithFallback("https://example.com/default.png")(h)
	assert.Equal(t, "https://example.com/default.png", h.Resolve(context.Background(), "1"))
}

func TestStatic(t *testing.T) {
	assert.Equal(t, DefaultURL, Static("").Resolve(context.Background(), "1"))
	assert.Equal(t, "https://x/y.png", Static("https://x/y.png").Resolve(context.Background(), "1"))
}
