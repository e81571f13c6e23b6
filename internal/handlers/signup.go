package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"grievance-portal-go/internal/metrics"
	"grievance-portal-go/internal/models"
	"grievance-portal-go/internal/store"
)

// RegisterUserHandler creates a new account
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if !models.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	passwordHash, err := models.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user, err := h.DB.CreateUser(r.Context(), req.Email, req.Name, passwordHash)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	metrics.SignupsTotal.Inc()

	writeJSON(w, http.StatusCreated, map[string]any{"id": user.ID})
}
