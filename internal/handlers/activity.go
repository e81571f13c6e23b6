package handlers

import (
	"fmt"
	"log"
	"net/http"

	"grievance-portal-go/internal/metrics"
)

// GetActivityHandler returns the session user's recent activity feed
func (h *Handler) GetActivityHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	events, err := h.Activity.GetEvents(r.Context(), sess.UserID)
	if err != nil {
		log.Printf("Failed to get activity for user %d: %v", sess.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to get activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// ClearActivityHandler empties the session user's activity feed
func (h *Handler) ClearActivityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.Activity.ClearEvents(r.Context(), sess.UserID); err != nil {
		log.Printf("Failed to clear activity for user %d: %v", sess.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to clear activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SSEHandler streams the session user's activity events as they happen
func (h *Handler) SSEHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe to the user's Redis channel
	pubsub := h.Activity.Subscribe(r.Context(), sess.UserID)
	defer pubsub.Close()

	metrics.SSEConnections.Inc()
	defer metrics.SSEConnections.Dec()

	ch := pubsub.Channel()

	fmt.Fprintf(w, "data: %s\n\n", "connected")
	flusher.Flush()

	for {
		select {
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
