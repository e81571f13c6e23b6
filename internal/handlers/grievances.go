package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"grievance-portal-go/internal/metrics"
	"grievance-portal-go/internal/models"
)

const dispatchTimeout = 30 * time.Second

// CreateGrievanceHandler files a grievance on behalf of the session user
func (h *Handler) CreateGrievanceHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Against int      `json:"against"`
		Text    string   `json:"text"`
		Images  [][]byte `json:"images"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.Against == 0 {
		writeError(w, http.StatusBadRequest, "against is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	g, err := h.DB.CreateGrievance(r.Context(), sess.UserID, req.Against, req.Text, req.Images)
	if err != nil {
		log.Printf("Failed to create grievance: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create grievance")
		return
	}

	metrics.GrievancesCreatedTotal.Inc()

	// Notify the target out of band. The filed grievance stands
	// regardless of what happens to the notification.
	go h.notifyTarget(req.Against, sess.Name)

	writeJSON(w, http.StatusCreated, map[string]any{"id": g.ID})
}

func (h *Handler) notifyTarget(targetID int, filerName string) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	message := fmt.Sprintf("%s filed a grievance against you", filerName)

	if _, err := h.Activity.AddEvent(ctx, targetID, models.EventGrievanceFiled, message); err != nil {
		log.Printf("Failed to record activity for user %d: %v", targetID, err)
	}

	res, err := h.Notifier.NotifyUser(ctx, targetID, "New grievance", message)
	if err != nil {
		log.Printf("Failed to dispatch push to user %d: %v", targetID, err)
		return
	}
	if !res.Success {
		log.Printf("Push fan-out to user %d incomplete: %d/%d delivered", targetID, res.Delivered, res.Attempted)
	}
}

type grievanceEntry struct {
	ID        int             `json:"id"`
	Text      string          `json:"text"`
	Against   *models.UserRef `json:"against,omitempty"`
	By        *models.UserRef `json:"by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListGrievancesHandler returns the session user's grievances in both
// directions, each joined with the counterparty's display name.
func (h *Handler) ListGrievancesHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	byYou, err := h.DB.GetGrievancesBy(r.Context(), sess.UserID)
	if err != nil {
		log.Printf("Failed to list grievances: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list grievances")
		return
	}

	againstYou, err := h.DB.GetGrievancesAgainst(r.Context(), sess.UserID)
	if err != nil {
		log.Printf("Failed to list grievances: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list grievances")
		return
	}

	byEntries := make([]grievanceEntry, 0, len(byYou))
	for _, v := range byYou {
		target := v.Counterparty
		byEntries = append(byEntries, grievanceEntry{
			ID:        v.ID,
			Text:      v.Text,
			Against:   &target,
			CreatedAt: v.CreatedAt,
		})
	}

	againstEntries := make([]grievanceEntry, 0, len(againstYou))
	for _, v := range againstYou {
		filer := v.Counterparty
		againstEntries = append(againstEntries, grievanceEntry{
			ID:        v.ID,
			Text:      v.Text,
			By:        &filer,
			CreatedAt: v.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"byYou":      byEntries,
		"againstYou": againstEntries,
	})
}

// GetUsersHandler returns the directory used by the "against" picker
func (h *Handler) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.GetUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}

	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, models.UserRef{ID: u.ID, Name: u.Name})
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": refs})
}
