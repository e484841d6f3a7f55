package promo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/middleware"
	"github.com/plug/fuel-api/internal/pkg/errorhandler"
	"github.com/plug/fuel-api/internal/pkg/response"
	"github.com/plug/fuel-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// user-facing copy per rejection
var redeemMessages = map[error]string{
	ErrInvalidCodeFormat: "Please enter a valid promo code",
	ErrInvalidPromoCode:  "Invalid or inactive promo code",
	ErrCodeExpired:       "This promo code has expired",
	ErrCodeExhausted:     "This promo code has reached its usage limit",
	ErrAlreadyRedeemed:   "You have already redeemed this promo code",
}

// Redeem handles POST /functions/v1/redeem-promo-code
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Raw(w, http.StatusUnauthorized, redeemError{Error: "Unauthorized"})
		return
	}

	var req RedeemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.Raw(w, http.StatusBadRequest, redeemError{Error: "Invalid JSON body"})
		return
	}

	result, err := h.svc.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		for sentinel, msg := range redeemMessages {
			if errors.Is(err, sentinel) {
				response.Raw(w, http.StatusBadRequest, redeemError{Error: msg, Reason: Reason(sentinel)})
				return
			}
		}
		errorhandler.LogInternal(r.Context(), "redeem_promo_code", err)
		response.Raw(w, http.StatusInternalServerError, redeemError{Error: "Internal server error"})
		return
	}

	response.Raw(w, http.StatusOK, redeemResponse{
		Success:        true,
		CreditsAwarded: result.CreditsAwarded,
		Message:        result.Message,
	})
}

// Create handles POST /api/admin/promo-codes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.svc.Create(r.Context(), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCodeFormat), errors.Is(err, ErrInvalidPromo):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrDuplicateCode):
			response.Conflict(w, "promo code already exists")
		default:
			errorhandler.Internal(r.Context(), w, "create_promo_code", err)
		}
		return
	}

	response.Created(w, p.ToResponse())
}

// List handles GET /api/admin/promo-codes
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	codes, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list_promo_codes", err)
		return
	}

	items := make([]*Response, 0, len(codes))
	for i := range codes {
		items = append(items, codes[i].ToResponse())
	}
	response.WithMeta(w, items, response.Meta{
		Limit:   limit,
		Offset:  offset,
		Count:   len(items),
		HasNext: len(items) == limit,
	})
}

// Deactivate handles POST /api/admin/promo-codes/{id}/deactivate
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promo code id")
		return
	}

	p, err := h.svc.Deactivate(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			response.NotFound(w, "promo code not found")
			return
		}
		errorhandler.Internal(r.Context(), w, "deactivate_promo_code", err)
		return
	}

	response.OK(w, p.ToResponse())
}

// AdminRoutes mounts /api/admin/promo-codes.
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, middleware.RequireAdmin())
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/deactivate", h.Deactivate)
	return r
}
