package avatar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultURL is Twitch's stock profile picture
	DefaultURL = "https://static-cdn.jtvnw.net/user-default-pictures-uv/13e5fa74-defa-11e9-809c-784f43822e80-profile_image-70x70.png"

	defaultBaseURL = "https://api.twitch.tv/helix"
)

// usersResponse represents the Helix /users response
type usersResponse struct {
	Data []struct {
		ID              string `json:"id"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

// Helix resolves profile images through the Twitch Helix API
type Helix struct {
	baseURL    string
	token      string
	clientID   string
	fallback   string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customizes a Helix resolver
type Option func(*Helix)

// WithBaseURL points the resolver at a different API root
func WithBaseURL(baseURL string) Option {
	return func(h *Helix) { h.baseURL = baseURL }
}

// WithFallback replaces the default avatar URL
func WithFallback(fallback string) Option {
	return func(h *Helix) {
		if fallback != "" {
			h.fallback = fallback
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(h *Helix) { h.httpClient = c }
}

// NewHelix creates a resolver using an app access token and client id
func NewHelix(token, clientID string, logger zerolog.Logger, opts ...Option) *Helix {
	h := &Helix{
		baseURL:    defaultBaseURL,
		token:      token,
		clientID:   clientID,
		fallback:   DefaultURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Resolve returns the user's profile image, or the fallback on any failure
func (h *Helix) Resolve(ctx context.Context, userID string) string {
	if userID == "" {
		return h.fallback
	}

	avatarURL, err := h.Lookup(ctx, userID)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("avatar lookup failed, using default")
		return h.fallback
	}
	if avatarURL == "" {
		return h.fallback
	}
	return avatarURL
}

// Lookup fetches the profile image URL for userID. An unknown user yields an empty string.
func (h *Helix) Lookup(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/users?id=%s", h.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Client-Id", h.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var users usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", fmt.Errorf("JSON decode failed: %w", err)
	}

	if len(users.Data) == 0 {
		return "", nil
	}
	return users.Data[0].ProfileImageURL, nil
}

// Static always returns the same URL; used when no lookup service is configured
type Static string

// Resolve implements the resolver contract
func (s Static) Resolve(context.Context, string) string {
	if s == "" {
		return DefaultURL
	}
	return string(s)
}
