package models

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "alice.smith@example.com", "x+tag@sub.domain.org"}
	invalid := []string{"", "plain", "no@tld", "spaces in@example.com", "@example.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	u := User{PasswordHash: hash}
	if !u.CheckPassword("hunter2") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("hunter3") {
		t.Error("wrong password accepted")
	}
}

func TestTOTPCodeVerification(t *testing.T) {
	key, err := GenerateTOTPSecret("alice@example.com", "Grievance Portal")
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	if !VerifyTOTPCode(key.Secret(), code) {
		t.Error("freshly generated code rejected")
	}
	if VerifyTOTPCode(key.Secret(), "000000") {
		t.Error("bogus code accepted")
	}
}
