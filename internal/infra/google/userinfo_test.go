package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"sub": "google-1", "email": "g@example.com", "name": "G"}`)
	}))
	defer server.Close()

	verifier := NewVerifierWithURL(server.URL)

	profile, err := verifier.UserInfo(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("userinfo: %v", err)
	}
	if profile.Sub != "google-1" || profile.Email != "g@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := verifier.UserInfo(context.Background(), "bad-token"); err == nil {
		t.Fatalf("expected rejection for bad token")
	}
}

func TestUserInfoMissingSubject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"email": "no-sub@example.com"}`)
	}))
	defer server.Close()

	if _, err := NewVerifierWithURL(server.URL).UserInfo(context.Background(), "token"); err == nil {
		t.Fatalf("expected error on missing subject")
	}
}
