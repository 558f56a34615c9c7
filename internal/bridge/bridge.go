// Package bridge accepts cross-window chat postings from a companion page.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/ingest"
)

const maxFrameBytes = 64 << 10

// ParseEvent decodes a bridge frame. Undecodable frames report false.
func ParseEvent(data []byte) (ingest.BridgeEvent, bool) {
	var ev ingest.BridgeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ingest.BridgeEvent{}, false
	}
	return ev, true
}

// Handler serves the bridge over WebSocket and plain POST
type Handler struct {
	sink           ingest.BridgeSink
	originPatterns []string
	log            zerolog.Logger
}

// NewHandler creates a bridge handler. originPatterns limits which pages may
// open the WebSocket; empty means same-origin only.
func NewHandler(sink ingest.BridgeSink, originPatterns []string, logger zerolog.Logger) *Handler {
	return &Handler{
		sink:           sink,
		originPatterns: originPatterns,
		log:            logger.With().Str("component", "bridge").Logger(),
	}
}

type postResponse struct {
	Added bool `json:"added"`
}

// ServePost handles a single frame sent as the request body
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	added, err := h.deliver(body)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ingest.ErrBridgeDisabled) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(postResponse{Added: added})
}

// ServeWS upgrades the connection and delivers every text frame to the sink
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameBytes)

	h.log.Info().Str("remote", r.RemoteAddr).Msg("bridge connected")

	err = h.readLoop(r.Context(), conn)

	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.log.Info().Str("remote", r.RemoteAddr).Msg("bridge disconnected")
		conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, ingest.ErrClosed), errors.Is(err, ingest.ErrBridgeDisabled):
		conn.Close(websocket.StatusGoingAway, err.Error())
	case errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusGoingAway, "shutting down")
	default:
		h.log.Warn().Err(err).Msg("bridge connection closed with error")
		conn.Close(websocket.StatusInternalError, "internal error")
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		if _, err := h.deliver(data); err != nil {
			return err
		}
	}
}

// deliver parses and forwards a frame; undecodable frames are dropped quietly
func (h *Handler) deliver(data []byte) (bool, error) {
	ev, ok := ParseEvent(data)
	if !ok {
		h.log.Debug().Int("bytes", len(data)).Msg("dropping undecodable bridge frame")
		return false, nil
	}
	return h.sink.HandleBridge(ev)
}
