package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/cooldown"
	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/ingest"
	"github.com/john/livefeed/internal/message"
)

type handlers struct {
	pipeline Pipeline
	store    *feed.Store
	log      zerolog.Logger
}

// FeedResponse is everything the renderer needs to draw the chat panel
type FeedResponse struct {
	Messages  []message.DisplayMessage `json:"messages"`
	Likes     feed.LikeState           `json:"likes"`
	Cooldown  cooldown.State           `json:"cooldown"`
	Notices   []message.SystemNotice   `json:"notices"`
	Platforms map[string]bool          `json:"platforms"`
}

type submitRequest struct {
	Text string `json:"text"`
}

func (h *handlers) getFeed(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, FeedResponse{
		Messages:  snap.Messages,
		Likes:     snap.Likes,
		Cooldown:  h.pipeline.Cooldown(),
		Notices:   h.pipeline.Notices(),
		Platforms: h.pipeline.Status(),
	})
}

func (h *handlers) postMessage(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.pipeline.SubmitLocal(req.Text)
	if err != nil {
		if errors.Is(err, ingest.ErrClosed) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.log.Error().Err(err).Msg("submit failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusCreated
	switch outcome.Status {
	case ingest.StatusRejected:
		status = http.StatusUnprocessableEntity
	case ingest.StatusRateLimited:
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, outcome)
}

func (h *handlers) postLike(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Tap())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
