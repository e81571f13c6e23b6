package handlers

import (
	"encoding/json"
	"net/http"

	"grievance-portal-go/internal/models"
)

const totpIssuer = "Grievance Portal"

// Generate2FAHandler generates a new TOTP secret and QR code for the
// session user
func (h *Handler) Generate2FAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	key, err := models.GenerateTOTPSecret(sess.Email, totpIssuer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate secret")
		return
	}

	qrCode, err := models.GenerateQRCode(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + qrCode,
		"issuer":  totpIssuer,
		"account": sess.Email,
	})
}

// Enable2FAHandler verifies the TOTP code and enables 2FA
func (h *Handler) Enable2FAHandler(w http.ResponseWriter, r *http.Request) {
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
		Secret string `json:"secret"`
		Code   string `json:"code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if !models.VerifyTOTPCode(req.Secret, req.Code) {
		writeError(w, http.StatusUnauthorized, "Invalid verification code")
		return
	}

	if err := h.DB.UpdateUser2FA(r.Context(), sess.UserID, req.Secret, true); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to enable 2FA")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Disable2FAHandler turns 2FA off for the session user
func (h *Handler) Disable2FAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := CurrentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.DB.Disable2FA(r.Context(), sess.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to disable 2FA")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
