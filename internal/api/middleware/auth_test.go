package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func authedHandler(gotUser *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUser = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthValidToken(t *testing.T) {
	var gotUser string
	handler := Auth(testSecret)(authedHandler(&gotUser))

	req := httptest.NewRequest("GET", "/api/medications", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"user_id": "user-42"}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "user-42" {
		t.Errorf("user id = %q, want user-42", gotUser)
	}
}

func TestAuthSubClaimFallback(t *testing.T) {
	var gotUser string
	handler := Auth(testSecret)(authedHandler(&gotUser))

	req := httptest.NewRequest("GET", "/api/medications", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "user-7"}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || gotUser != "user-7" {
		t.Errorf("status = %d, user = %q; want 200, user-7", rec.Code, gotUser)
	}
}

func TestAuthRejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"user_id": "user-1"})},
		{"no identity", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "admin"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := Auth(testSecret)(authedHandler(&gotUser))

			req := httptest.NewRequest("GET", "/api/medications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if gotUser != "" {
				t.Errorf("handler ran with user %q despite rejection", gotUser)
			}
		})
	}
}
