package promo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/domain/promo"
	"github.com/plug/fuel-api/internal/middleware"
	"github.com/plug/fuel-api/internal/pkg/jwt"
)

type redeemBody struct {
	Success        bool   `json:"success"`
	CreditsAwarded int    `json:"creditsAwarded"`
	Message        string `json:"message"`
	Error          string `json:"error"`
	Reason         string `json:"reason"`
}

func newPromoRouter(t *testing.T) (http.Handler, *jwt.Service, *promo.Service) {
	t.Helper()

	svc := newTestService(t, newMemoryRepository())
	h := promo.NewHandler(svc)
	jwtSvc := jwt.NewService("promo-handler-secret", time.Hour)
	auth := middleware.Auth(jwtSvc)

	r := chi.NewRouter()
	r.With(middleware.FunctionAuth(jwtSvc)).Post("/functions/v1/redeem-promo-code", h.Redeem)
	r.Mount("/api/admin/promo-codes", h.AdminRoutes(auth))
	return r, jwtSvc, svc
}

func doRequest(t *testing.T, router http.Handler, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, jwtSvc *jwt.Service, role string) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), role)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	return token
}

func TestRedeemEndpoint(t *testing.T) {
	router, jwtSvc, _ := newPromoRouter(t)
	admin := issueToken(t, jwtSvc, jwt.RoleServiceRole)
	user := issueToken(t, jwtSvc, jwt.RoleAuthenticated)

	rec := doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes", map[string]interface{}{
		"code":   "WELCOME50",
		"type":   "bonus",
		"amount": 50,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating code, got %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(t, router, "", http.MethodPost, "/functions/v1/redeem-promo-code", map[string]string{"code": "WELCOME50"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body redeemBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Success || body.Error != "Unauthorized" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("empty code", func(t *testing.T) {
		rec := doRequest(t, router, user, http.MethodPost, "/functions/v1/redeem-promo-code", map[string]string{"code": ""})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var body redeemBody
		json.NewDecoder(rec.Body).Decode(&body)
		if body.Success || body.Reason != "invalid_format" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := doRequest(t, router, user, http.MethodPost, "/functions/v1/redeem-promo-code", map[string]string{"code": "NOT-A-CODE"})
		var body redeemBody
		json.NewDecoder(rec.Body).Decode(&body)
		if rec.Code != http.StatusBadRequest || body.Reason != "invalid_code" {
			t.Fatalf("expected 400 invalid_code, got %d %+v", rec.Code, body)
		}
	})

	t.Run("success then already redeemed", func(t *testing.T) {
		rec := doRequest(t, router, user, http.MethodPost, "/functions/v1/redeem-promo-code", map[string]string{"code": "welcome50"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body redeemBody
		json.NewDecoder(rec.Body).Decode(&body)
		if !body.Success || body.CreditsAwarded != 50 || body.Message == "" {
			t.Fatalf("unexpected body: %+v", body)
		}

		rec = doRequest(t, router, user, http.MethodPost, "/functions/v1/redeem-promo-code", map[string]string{"code": "WELCOME50"})
		body = redeemBody{}
		json.NewDecoder(rec.Body).Decode(&body)
		if rec.Code != http.StatusBadRequest || body.Reason != "already_redeemed" || body.Error == "" {
			t.Fatalf("expected 400 already_redeemed, got %d %+v", rec.Code, body)
		}
	})
}

func TestAdminPromoRoutes(t *testing.T) {
	router, jwtSvc, svc := newPromoRouter(t)
	admin := issueToken(t, jwtSvc, jwt.RoleAdmin)

	t.Run("regular user forbidden", func(t *testing.T) {
		rec := doRequest(t, router, issueToken(t, jwtSvc, jwt.RoleAuthenticated), http.MethodGet, "/api/admin/promo-codes", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		rec := doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes", map[string]interface{}{
			"code": "BAD", "type": "jackpot", "amount": 5,
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		body := map[string]interface{}{"code": "DUP", "type": "bonus", "amount": 5}
		if rec := doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if rec := doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes", body); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("list and deactivate", func(t *testing.T) {
		codes, err := svc.List(context.Background(), 10, 0)
		if err != nil || len(codes) == 0 {
			t.Fatalf("expected stored codes, got %d err=%v", len(codes), err)
		}

		rec := doRequest(t, router, admin, http.MethodGet, "/api/admin/promo-codes", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		rec = doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes/"+codes[0].ID.String()+"/deactivate", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		rec = doRequest(t, router, admin, http.MethodPost, "/api/admin/promo-codes/"+uuid.NewString()+"/deactivate", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
