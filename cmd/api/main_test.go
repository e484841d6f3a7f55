package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/domain/promo"
	"github.com/plug/fuel-api/internal/pkg/codehash"
	"github.com/plug/fuel-api/internal/pkg/jwt"
)

func newTestRouter(t *testing.T, ping func(context.Context) error) (http.Handler, *jwt.Service) {
	t.Helper()

	hasher, err := codehash.New("router-test-pepper")
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	jwtSvc := jwt.NewService("router-test-secret", time.Hour)
	fuelSvc := fuel.NewService(nil, nil, nil)

	r := newRouter(routerDeps{
		fuel:           fuel.NewHandler(fuelSvc),
		promo:          promo.NewHandler(promo.NewService(nil, fuelSvc, hasher, nil)),
		jwt:            jwtSvc,
		allowedOrigins: []string{"http://localhost:5173"},
		ping:           ping,
	})
	return r, jwtSvc
}

func TestRouterMountsAllRoutes(t *testing.T) {
	r, jwtSvc := newTestRouter(t, nil)

	user, err := jwtSvc.GenerateAccessToken(uuid.New(), jwt.RoleAuthenticated)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"deduct without token", http.MethodPost, "/functions/v1/deduct-credits", "", http.StatusUnauthorized},
		{"redeem without token", http.MethodPost, "/functions/v1/redeem-promo-code", "", http.StatusUnauthorized},
		{"balance without token", http.MethodGet, "/api/v1/credits/balance", "", http.StatusUnauthorized},
		{"transactions without token", http.MethodGet, "/api/v1/credits/transactions", "", http.StatusUnauthorized},
		{"admin promo list as user", http.MethodGet, "/api/admin/promo-codes", user, http.StatusForbidden},
		{"admin grant as user", http.MethodPost, "/api/admin/credits/" + uuid.NewString() + "/grant", user, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/functions/v1/nope", user, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestFunctionRoutesUnauthorizedBodyIsFlat(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, path := range []string{"/functions/v1/deduct-credits", "/functions/v1/redeem-promo-code"} {
		t.Run(path, func(t *testing.T) {
			for _, header := range []string{"", "Bearer not-a-jwt"} {
				req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
				if header != "" {
					req.Header.Set("Authorization", header)
				}
				rr := httptest.NewRecorder()
				r.ServeHTTP(rr, req)

				if rr.Code != http.StatusUnauthorized {
					t.Fatalf("expected status 401, got %d", rr.Code)
				}
				var body map[string]interface{}
				if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if msg, ok := body["error"].(string); !ok || msg == "" {
					t.Fatalf("expected a string error, got %#v", body["error"])
				}
				if body["success"] != false {
					t.Fatalf("expected success=false, got %#v", body["success"])
				}
			}
		})
	}
}

func TestRESTRoutesUnauthorizedUseEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil))

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthReportsDatabaseFailure(t *testing.T) {
	r, _ := newTestRouter(t, func(context.Context) error { return errors.New("connection refused") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/deduct-credits", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type, apikey")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
	if got := strings.ToLower(rr.Header().Get("Access-Control-Allow-Headers")); !strings.Contains(got, "apikey") {
		t.Fatalf("expected apikey in allowed headers, got %q", got)
	}
}
