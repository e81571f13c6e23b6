package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"grievance-portal-go/internal/models"
)

// GetVAPIDKeyHandler returns the public VAPID key
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publicKey": h.Notifier.PublicKey(),
	})
}

// SubscribePushHandler upserts the device's push subscription for the
// session user, keyed by (user, user agent).
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Endpoint       string `json:"endpoint"`
		ExpirationTime int64  `json:"expirationTime"`
		Keys           struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
		UserAgent string `json:"userAgent"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "Incomplete subscription")
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	sub := models.PushSubscription{
		UserID:         sess.UserID,
		Endpoint:       req.Endpoint,
		ExpirationTime: req.ExpirationTime,
		P256dh:         req.Keys.P256dh,
		Auth:           req.Keys.Auth,
		UserAgent:      userAgent,
	}

	if err := h.DB.SaveSubscription(r.Context(), sub); err != nil {
		log.Printf("Failed to save subscription: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UnsubscribePushHandler removes the device's subscription. Removing a
// device that was never subscribed still reports success.
func (h *Handler) UnsubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		UserAgent string `json:"userAgent"`
	}
	// Body is optional; default to the request's user agent.
	_ = json.NewDecoder(r.Body).Decode(&req)

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	if err := h.DB.DeleteSubscription(r.Context(), sess.UserID, userAgent); err != nil {
		log.Printf("Failed to delete subscription: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
