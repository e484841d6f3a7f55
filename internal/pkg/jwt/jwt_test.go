package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestValidateAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, RoleAuthenticated)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	got, _ := claims.UserID()
	if got != userID || claims.Role != RoleAuthenticated {
		t.Fatalf("unexpected claims: sub=%s role=%s", got, claims.Role)
	}
}

func TestValidateAccessTokenRejects(t *testing.T) {
	svc := NewService("secret", time.Minute)

	t.Run("expired", func(t *testing.T) {
		expired := NewService("secret", -time.Minute)
		token, _ := expired.GenerateAccessToken(uuid.New(), RoleAuthenticated)
		if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService("other", time.Minute)
		token, _ := other.GenerateAccessToken(uuid.New(), RoleAuthenticated)
		if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := Claims{
			Role: RoleAuthenticated,
			RegisteredClaims: gojwt.RegisteredClaims{
				Subject:   "anon",
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		token, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
