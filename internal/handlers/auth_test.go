package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterUserValidation(t *testing.T) {
	db := newFakeStore()
	h, _, _ := newTestHandler(db)

	cases := []struct {
		name string
		body string
	}{
		{"invalid email", `{"email":"not-an-email","name":"Alice","password":"pw"}`},
		{"missing name", `{"email":"alice@example.com","name":"","password":"pw"}`},
		{"missing password", `{"email":"alice@example.com","name":"Alice","password":""}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.RegisterUserHandler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}

	if len(db.users) != 0 {
		t.Errorf("expected no users created, got %d", len(db.users))
	}
}

func TestRegisterUserDuplicateEmailConflicts(t *testing.T) {
	db := newFakeStore()
	h, _, _ := newTestHandler(db)

	body := `{"email":"alice@example.com","name":"Alice","password":"hunter2"}`

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first signup: expected 201, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second signup: expected 409, got %d", rec.Code)
	}

	if len(db.users) != 1 {
		t.Errorf("expected exactly one user, got %d", len(db.users))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := newFakeStore()
	db.addUser("alice@example.com", "Alice") // password is password123
	h, _, _ := newTestHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	db := newFakeStore()
	db.addUser("alice@example.com", "Alice")
	h, _, _ := newTestHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"alice@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The returned cookie must resolve to the user on the next request.
	next := httptest.NewRequest(http.MethodGet, "/api/grievances", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	sess, ok := CurrentSession(next)
	if !ok {
		t.Fatal("expected an authenticated session after login")
	}
	if sess.Name != "Alice" || sess.Email != "alice@example.com" {
		t.Errorf("unexpected session identity: %+v", sess)
	}
}

func TestLoginWith2FAEnabledParksSession(t *testing.T) {
	db := newFakeStore()
	u := db.addUser("alice@example.com", "Alice")
	db.UpdateUser2FA(context.Background(), u.ID, "SECRET", true)
	h, _, _ := newTestHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"alice@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Requires2FA bool `json:"requires_2fa"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Requires2FA {
		t.Error("expected requires_2fa in the response")
	}

	// No full session yet.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	if _, ok := CurrentSession(next); ok {
		t.Error("session must not be established before the TOTP code is verified")
	}
}
