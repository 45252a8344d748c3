package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/realtime"
)

type RealtimeHandler struct {
	authorizer *realtime.Authorizer
}

func NewRealtimeHandler(authorizer *realtime.Authorizer) *RealtimeHandler {
	return &RealtimeHandler{authorizer: authorizer}
}

type ChannelAuthRequest struct {
	Channel string `json:"channel"`
}

type ChannelAuthResponse struct {
	Channel    string `json:"channel"`
	Authorized bool   `json:"authorized"`
}

// Authorize handles POST /api/v1/realtime/auth. Clients present the private
// channel they want to subscribe to; the decision follows the channel
// contract, not the caller's role.
func (h *RealtimeHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req ChannelAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Channel == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Channel is required"})
		return
	}

	ok, err := h.authorizer.AuthorizeChannel(r.Context(), middleware.GetActor(r.Context()), req.Channel)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusForbidden
	}
	writeJSON(w, status, ChannelAuthResponse{Channel: req.Channel, Authorized: ok})
}
