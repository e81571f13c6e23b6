package handlers

import (
	"encoding/json"
	"net/http"

	"grievance-portal-go/internal/models"

	"github.com/gorilla/sessions"
)

var (
	sessionStore = sessions.NewCookieStore([]byte("dev-secret-change-in-production"))
	sessionName  = "grievance-session"
)

// InitSessionStore replaces the development cookie secret. Called from
// main with SESSION_SECRET when set.
func InitSessionStore(secret string) {
	if secret != "" {
		sessionStore = sessions.NewCookieStore([]byte(secret))
	}
}

// Session is the resolved identity of the current request. Absence of
// a session is an ordinary control path, not an error.
type Session struct {
	UserID int
	Name   string
	Email  string
}

// CurrentSession returns the authenticated identity, if any.
func CurrentSession(r *http.Request) (Session, bool) {
	session, _ := sessionStore.Get(r, sessionName)
	userID, ok := session.Values["user_id"].(int)
	if !ok || userID == 0 {
		return Session{}, false
	}
	name, _ := session.Values["name"].(string)
	email, _ := session.Values["email"].(string)
	return Session{UserID: userID, Name: name, Email: email}, true
}

func establishSession(w http.ResponseWriter, r *http.Request, user models.User) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["name"] = user.Name
	session.Values["email"] = user.Email
	delete(session.Values, "pending_2fa")
	session.Save(r, w)
}

// AuthMiddleware rejects requests without a session
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentSession(r); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// LoginHandler handles email/password login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.DB.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.CheckPassword(req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Password verified; park the login until the TOTP code arrives
	if user.TOTPEnabled {
		session, _ := sessionStore.Get(r, sessionName)
		session.Values["pending_2fa"] = user.ID
		session.Save(r, w)

		writeJSON(w, http.StatusOK, map[string]any{
			"requires_2fa": true,
		})
		return
	}

	establishSession(w, r, user)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// Verify2FALoginHandler completes a login parked behind a TOTP check
func (h *Handler) Verify2FALoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, _ := sessionStore.Get(r, sessionName)
	userID, ok := session.Values["pending_2fa"].(int)
	if !ok || userID == 0 {
		writeError(w, http.StatusUnauthorized, "No pending login")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.DB.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !models.VerifyTOTPCode(user.TOTPSecret, req.Code) {
		writeError(w, http.StatusUnauthorized, "Invalid verification code")
		return
	}

	establishSession(w, r, user)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// LogoutHandler clears the session
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["user_id"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
