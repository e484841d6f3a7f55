package fuel

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

type deductRequest struct {
	Action       string `json:"action" validate:"required,fuel_action"`
	CustomAmount *int   `json:"customAmount" validate:"omitempty,lte=1000000"`
}

type deductResponse struct {
	Success       bool `json:"success"`
	Deducted      int  `json:"deducted"`
	DailyFuel     int  `json:"daily_fuel"`
	PermanentFuel int  `json:"permanent_fuel"`
	TotalCredits  int  `json:"total_credits"`
	PingsToday    int  `json:"pings_today"`
	FreePing      bool `json:"free_ping"`
}

type insufficientResponse struct {
	Error     string `json:"error"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type functionError struct {
	Error string `json:"error"`
}

// DeductCredits handles POST /functions/v1/deduct-credits
func (h *Handler) DeductCredits(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Raw(w, http.StatusUnauthorized, functionError{Error: "Unauthorized"})
		return
	}

	var req deductRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.Raw(w, http.StatusBadRequest, functionError{Error: "Invalid JSON body"})
		return
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.LogValidation(r.Context(), "deduct_credits", errs)
		msg := "Missing or invalid action"
		if _, bad := errs["customAmount"]; bad {
			msg = "Invalid amount"
		}
		response.Raw(w, http.StatusBadRequest, functionError{Error: msg})
		return
	}

	result, err := h.svc.Deduct(r.Context(), userID, req.Action, req.CustomAmount)
	if err != nil {
		var short *InsufficientCreditsError
		switch {
		case errors.As(err, &short):
			response.Raw(w, http.StatusPaymentRequired, insufficientResponse{
				Error:     "Insufficient credits",
				Required:  short.Required,
				Available: short.Available,
			})
		case errors.Is(err, ErrUnknownAction):
			response.Raw(w, http.StatusBadRequest, functionError{Error: "Unknown action"})
		case errors.Is(err, ErrInvalidAmount):
			response.Raw(w, http.StatusBadRequest, functionError{Error: "Invalid amount"})
		default:
			errorhandler.LogInternal(r.Context(), "deduct_credits", err)
			response.Raw(w, http.StatusInternalServerError, functionError{Error: "Internal server error"})
		}
		return
	}

	response.Raw(w, http.StatusOK, deductResponse{
		Success:       true,
		Deducted:      result.Deducted,
		DailyFuel:     result.DailyFuel,
		PermanentFuel: result.PermanentFuel,
		TotalCredits:  result.TotalCredits,
		PingsToday:    result.PingsToday,
		FreePing:      result.FreePing,
	})
}

// Balance handles GET /api/v1/credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	credits, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrLedgerBusy) {
			response.ServiceUnavailable(w, "balance is being updated, retry shortly")
			return
		}
		errorhandler.Internal(r.Context(), w, "get_balance", err)
		return
	}

	response.OK(w, map[string]interface{}{
		"daily_fuel":       credits.DailyFuel,
		"permanent_fuel":   credits.PermanentFuel,
		"total_credits":    credits.Total(),
		"pings_today":      credits.PingsToday,
		"free_pings_left":  max(0, h.svc.pricing.FreePingsPerDay-credits.PingsToday),
		"last_refill_date": credits.LastRefillDate,
		"daily_allotment":  DailyAllotment,
	})
}

// Transactions handles GET /api/v1/credits/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit == 0 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)

	txs, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list_transactions", err)
		return
	}

	response.WithMeta(w, txs, response.Meta{
		Limit:   limit,
		Offset:  offset,
		Count:   len(txs),
		HasNext: len(txs) == limit,
	})
}

type grantRequest struct {
	Amount      int    `json:"amount" validate:"required,gt=0,lte=1000000"`
	ActionType  string `json:"action_type" validate:"omitempty,fuel_action"`
	Description string `json:"description" validate:"max=500"`
}

// Grant handles POST /api/admin/credits/{userID}/grant
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req grantRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	credits, err := h.svc.Grant(r.Context(), userID, req.Amount, req.ActionType, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ErrLedgerBusy):
			response.ServiceUnavailable(w, "balance is being updated, retry shortly")
		default:
			errorhandler.Internal(r.Context(), w, "grant_credits", err)
		}
		return
	}

	response.OK(w, credits)
}

// Routes mounts the user-facing REST routes under /api/v1/credits.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}

// AdminRoutes mounts /api/admin/credits.
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, middleware.RequireAdmin())
	r.Post("/{userID}/grant", h.Grant)
	return r
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
