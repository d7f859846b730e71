package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.openly.dev/pointy"

	"github.com/rebuslabs/tokenbridge/internal/entities"
	"github.com/rebuslabs/tokenbridge/internal/usecases"
)

var (
	_ OrderService     = (*usecases.OrderService)(nil)
	_ WhitelistService = (*usecases.WhitelistService)(nil)
	_ DepositService   = (*usecases.DepositService)(nil)
)

const (
	headerOperatorName = "X-Operator-Name"
	headerOperatorKey  = "X-Operator-Key"
)

type HTTPHandler struct {
	logger           *slog.Logger
	whitelistService WhitelistService
	orderService     OrderService
	depositService   DepositService
}

func NewHTTPHandler(
	logger *slog.Logger,
	whitelistService WhitelistService,
	orderService OrderService,
	depositService DepositService,
) *HTTPHandler {
	return &HTTPHandler{
		logger:           logger,
		whitelistService: whitelistService,
		orderService:     orderService,
		depositService:   depositService,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	// API endpoints.

	// Whitelist
	router.HandleFunc("/whitelist", h.ListTokensHandler).Methods("GET")
	router.HandleFunc("/whitelist", h.AddTokenHandler).Methods("POST")
	router.HandleFunc("/whitelist/{symbol}", h.RemoveTokenHandler).Methods("DELETE")

	// Orders
	router.HandleFunc("/orders", h.ListOrdersHandler).Methods("GET")
	router.HandleFunc("/orders", h.PlaceOrderHandler).Methods("POST")
	router.HandleFunc("/orders/{orderId:[0-9]+}", h.GetOrderHandler).Methods("GET")
	router.HandleFunc("/orders/{orderId:[0-9]+}/progress", h.MarkInProgressHandler).Methods("POST")
	router.HandleFunc("/orders/{orderId:[0-9]+}/complete", h.MarkCompletedHandler).Methods("POST")
	router.HandleFunc("/orders/{orderId:[0-9]+}/log", h.LogOrderHandler).Methods("POST")

	// Deposits
	router.HandleFunc("/deposits", h.ListDepositsHandler).Methods("GET")

	// Health
	router.HandleFunc("/health", h.HealthHandler).Methods("GET")
}

// actorFromRequest reads the caller identity headers. Missing headers produce
// an empty actor, which the guard rejects.
func actorFromRequest(r *http.Request) entities.Actor {
	return entities.Actor{
		Name: r.Header.Get(headerOperatorName),
		Key:  r.Header.Get(headerOperatorKey),
	}
}

// writeServiceError maps service errors to HTTP statuses.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, entities.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entities.ErrDuplicateKey):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrInvalidAsset):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Error encoding response", "error", err)
	}
}

func (h *HTTPHandler) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.whitelistService.ListTokens(r.Context())
	if err != nil {
		h.logger.Error("Error listing whitelist", "error", err)
		h.writeServiceError(w, err)
		return
	}
	if tokens == nil {
		tokens = []entities.WhitelistEntry{}
	}

	h.writeJSON(w, http.StatusOK, tokens)
}

func (h *HTTPHandler) AddTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.whitelistService.AddToken(r.Context(), actorFromRequest(r), req.Symbol)
	if err != nil {
		h.logger.Error("Error adding token", "error", err, "symbol", req.Symbol)
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Token whitelisted", "symbol", entry.Symbol)
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *HTTPHandler) RemoveTokenHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	if err := h.whitelistService.RemoveToken(r.Context(), actorFromRequest(r), symbol); err != nil {
		h.logger.Error("Error removing token", "error", err, "symbol", symbol)
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Token removed from whitelist", "symbol", symbol)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Token removed successfully"})
}

func (h *HTTPHandler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	var owner *string
	if o := r.URL.Query().Get("owner"); o != "" {
		owner = pointy.String(o)
	}

	var status *entities.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := entities.ParseOrderStatus(s)
		if !ok {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		status = pointy.Pointer(parsed)
	}

	orders, err := h.orderService.ListOrders(r.Context(), owner, status)
	if err != nil {
		h.logger.Error("Error listing orders", "error", err)
		h.writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []entities.Order{}
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type orderRequest struct {
	Owner              string `json:"owner"`
	DestinationAddress string `json:"destination_address"`
	Symbol             string `json:"symbol"`
	Precision          uint8  `json:"precision"`
	Amount             int64  `json:"amount"`
}

func (h *HTTPHandler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	asset := entities.Asset{Symbol: req.Symbol, Precision: req.Precision, Amount: req.Amount}
	order, err := h.orderService.PlaceOrder(r.Context(), actorFromRequest(r), req.Owner, req.DestinationAddress, asset)
	if err != nil {
		h.logger.Error("Error placing order", "error", err, "owner", req.Owner)
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Order placed", "order_id", order.ID, "owner", order.Owner, "asset", order.Asset().String())
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDFromPath(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) MarkInProgressHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDFromPath(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.MarkInProgress(r.Context(), actorFromRequest(r), orderID)
	if err != nil {
		h.logger.Error("Error marking order in progress", "error", err, "order_id", orderID)
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) MarkCompletedHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDFromPath(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.MarkCompleted(r.Context(), actorFromRequest(r), orderID)
	if err != nil {
		h.logger.Error("Error marking order completed", "error", err, "order_id", orderID)
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) LogOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDFromPath(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	asset := entities.Asset{Symbol: req.Symbol, Precision: req.Precision, Amount: req.Amount}
	err := h.orderService.LogOrder(r.Context(), actorFromRequest(r), orderID, req.Owner, req.DestinationAddress, asset)
	if err != nil {
		h.logger.Error("Error logging order", "error", err, "order_id", orderID)
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Order logged successfully"})
}

func (h *HTTPHandler) ListDepositsHandler(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.depositService.ListDeposits(r.Context())
	if err != nil {
		h.logger.Error("Error listing deposits", "error", err)
		h.writeServiceError(w, err)
		return
	}
	if deposits == nil {
		deposits = []entities.Deposit{}
	}

	h.writeJSON(w, http.StatusOK, deposits)
}

func (h *HTTPHandler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) orderIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	orderIDStr, ok := vars["orderId"]
	if !ok {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return 0, false
	}

	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid order ID format", "error", err, "order_id", orderIDStr)
		http.Error(w, "Invalid order ID format", http.StatusBadRequest)
		return 0, false
	}

	return orderID, true
}
