package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"grievance-portal-go/internal/push"
	"grievance-portal-go/internal/store"
)

// Notifier is the push fan-out surface the handlers depend on.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int, title, body string) (push.Result, error)
	PublicKey() string
}

type Handler struct {
	DB       store.DataStore
	Activity store.ActivityStore
	Notifier Notifier
	Tmpl     map[string]*template.Template
}

func NewHandler(db store.DataStore, activity store.ActivityStore, notifier Notifier, tmpl map[string]*template.Template) *Handler {
	return &Handler{
		DB:       db,
		Activity: activity,
		Notifier: notifier,
		Tmpl:     tmpl,
	}
}

func (h *Handler) RenderPage(w http.ResponseWriter, page string, data any) {
	if tmpl, ok := h.Tmpl[page]; ok {
		if err := tmpl.Execute(w, data); err != nil {
			log.Println("Template error:", err)
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	} else {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if _, ok := CurrentSession(r); ok {
		http.Redirect(w, r, "/grievances", http.StatusSeeOther)
		return
	}
	h.RenderPage(w, "login", nil)
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.RenderPage(w, "signup", nil)
}

func (h *Handler) GrievancesPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.RenderPage(w, "grievances", map[string]any{
		"UserID": sess.UserID,
		"Name":   sess.Name,
	})
}

func (h *Handler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := CurrentSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	user, err := h.DB.GetUser(r.Context(), sess.UserID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	h.RenderPage(w, "settings", map[string]any{
		"UserID":      user.ID,
		"Name":        user.Name,
		"Email":       user.Email,
		"TOTPEnabled": user.TOTPEnabled,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
