package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIBase is the public Kick API root
const DefaultAPIBase = "https://kick.com/api/v2"

// ChannelResponse represents the channel lookup response from Kick
type ChannelResponse struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Chatroom struct {
		ID int `json:"id"`
	} `json:"chatroom"`
}

// Resolver maps channel slugs to chatroom IDs
type Resolver struct {
	apiBase    string
	httpClient *http.Client
}

// NewResolver creates a resolver. An empty apiBase uses DefaultAPIBase.
func NewResolver(apiBase string) *Resolver {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Resolver{
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve fetches channel information and returns the chatroom ID and canonical slug
func (r *Resolver) Resolve(ctx context.Context, channelName string) (int, string, error) {
	url := fmt.Sprintf("%s/channels/%s", r.apiBase, channelName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers; the API sits behind CloudFlare
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://kick.com/")
	req.Header.Set("Origin", "https://kick.com")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var info ChannelResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, "", fmt.Errorf("JSON decode failed: %w", err)
	}
	if info.Chatroom.ID == 0 {
		return 0, "", fmt.Errorf("channel %s has no chatroom", channelName)
	}

	slug := info.Slug
	if slug == "" {
		slug = channelName
	}
	return info.Chatroom.ID, slug, nil
}
