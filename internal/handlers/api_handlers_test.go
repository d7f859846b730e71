package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

const (
	testOperatorName = "bridge"
	testOperatorKey  = "secret"
)

type stubWhitelistService struct {
	tokens map[string]bool
}

func (s *stubWhitelistService) authorize(actor entities.Actor) error {
	if actor.Name != testOperatorName || actor.Key != testOperatorKey {
		return fmt.Errorf("missing authority of %s: %w", testOperatorName, entities.ErrUnauthorized)
	}
	return nil
}

func (s *stubWhitelistService) AddToken(_ context.Context, actor entities.Actor, symbol string) (entities.WhitelistEntry, error) {
	if err := s.authorize(actor); err != nil {
		return entities.WhitelistEntry{}, err
	}
	normalized := entities.NormalizeSymbol(symbol)
	if s.tokens[normalized] {
		return entities.WhitelistEntry{}, fmt.Errorf("symbol already listed: %w", entities.ErrDuplicateKey)
	}
	s.tokens[normalized] = true
	return entities.WhitelistEntry{Symbol: normalized}, nil
}

func (s *stubWhitelistService) RemoveToken(_ context.Context, actor entities.Actor, symbol string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	normalized := entities.NormalizeSymbol(symbol)
	if !s.tokens[normalized] {
		return fmt.Errorf("symbol does not exist: %w", entities.ErrNotFound)
	}
	delete(s.tokens, normalized)
	return nil
}

func (s *stubWhitelistService) ListTokens(context.Context) ([]entities.WhitelistEntry, error) {
	entries := make([]entities.WhitelistEntry, 0, len(s.tokens))
	for symbol := range s.tokens {
		entries = append(entries, entities.WhitelistEntry{Symbol: symbol})
	}
	return entries, nil
}

type stubOrderService struct {
	whitelist *stubWhitelistService
	nextID    int64
	orders    map[int64]entities.Order
}

func (s *stubOrderService) PlaceOrder(_ context.Context, actor entities.Actor, owner, destinationAddress string, asset entities.Asset) (entities.Order, error) {
	if err := s.whitelist.authorize(actor); err != nil {
		return entities.Order{}, err
	}
	if err := asset.Validate(); err != nil {
		return entities.Order{}, err
	}
	s.nextID++
	order := entities.Order{
		ID:                 s.nextID,
		Owner:              owner,
		Symbol:             asset.Symbol,
		Precision:          asset.Precision,
		Amount:             asset.Amount,
		DestinationAddress: destinationAddress,
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderService) MarkInProgress(_ context.Context, actor entities.Actor, orderID int64) (entities.Order, error) {
	return s.setStatus(actor, orderID, entities.OrderStatusInProgress)
}

func (s *stubOrderService) MarkCompleted(_ context.Context, actor entities.Actor, orderID int64) (entities.Order, error) {
	return s.setStatus(actor, orderID, entities.OrderStatusCompleted)
}

func (s *stubOrderService) setStatus(actor entities.Actor, orderID int64, status entities.OrderStatus) (entities.Order, error) {
	if err := s.whitelist.authorize(actor); err != nil {
		return entities.Order{}, err
	}
	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	order.Status = status
	s.orders[orderID] = order
	return order, nil
}

func (s *stubOrderService) LogOrder(_ context.Context, actor entities.Actor, _ int64, _, _ string, _ entities.Asset) error {
	return s.whitelist.authorize(actor)
}

func (s *stubOrderService) GetOrder(_ context.Context, orderID int64) (entities.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	return order, nil
}

func (s *stubOrderService) ListOrders(_ context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error) {
	var result []entities.Order
	for id := int64(1); id <= s.nextID; id++ {
		order, ok := s.orders[id]
		if !ok {
			continue
		}
		if owner != nil && order.Owner != *owner {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

type stubDepositService struct {
	deposits []entities.Deposit
}

func (s *stubDepositService) ListDeposits(context.Context) ([]entities.Deposit, error) {
	return s.deposits, nil
}

func newTestRouter() (*mux.Router, *stubWhitelistService, *stubOrderService, *stubDepositService) {
	whitelist := &stubWhitelistService{tokens: make(map[string]bool)}
	orders := &stubOrderService{whitelist: whitelist, orders: make(map[int64]entities.Order)}
	deposits := &stubDepositService{}

	handler := NewHTTPHandler(slog.Default(), whitelist, orders, deposits)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, whitelist, orders, deposits
}

func doRequest(router *mux.Router, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if authorized {
		req.Header.Set("X-Operator-Name", testOperatorName)
		req.Header.Set("X-Operator-Key", testOperatorKey)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWhitelistEndpoints(t *testing.T) {
	router, whitelist, _, _ := newTestRouter()

	t.Run("add token", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/whitelist", `{"symbol":"XYZ"}`, true)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.True(t, whitelist.tokens["xyz"])
	})

	t.Run("duplicate token conflicts", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/whitelist", `{"symbol":"xyz"}`, true)
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("unauthorized add", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/whitelist", `{"symbol":"ABC"}`, false)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("list tokens", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/whitelist", "", false)
		require.Equal(t, http.StatusOK, resp.Code)

		var entries []entities.WhitelistEntry
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
	})

	t.Run("remove missing token", func(t *testing.T) {
		resp := doRequest(router, http.MethodDelete, "/whitelist/sol", "", true)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestOrderEndpoints(t *testing.T) {
	router, _, orders, _ := newTestRouter()

	placeBody := `{"owner":"alice","destination_address":"dest-1","symbol":"XYZ","precision":4,"amount":40000}`

	t.Run("place order", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders", placeBody, true)
		require.Equal(t, http.StatusCreated, resp.Code)

		var order entities.Order
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &order))
		require.Equal(t, int64(1), order.ID)
		require.Equal(t, "alice", order.Owner)
	})

	t.Run("invalid asset", func(t *testing.T) {
		bad := `{"owner":"alice","destination_address":"dest-1","symbol":"XYZ","precision":4,"amount":0}`
		resp := doRequest(router, http.MethodPost, "/orders", bad, true)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("mark in progress", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders/1/progress", "", true)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, entities.OrderStatusInProgress, orders.orders[1].Status)
	})

	t.Run("mark completed", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders/1/complete", "", true)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, entities.OrderStatusCompleted, orders.orders[1].Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders/99/progress", "", true)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("unauthorized transition", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders/1/complete", "", false)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("get order", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/orders/1", "", false)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("list with filters", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/orders?owner=alice&status=completed", "", false)
		require.Equal(t, http.StatusOK, resp.Code)

		var result []entities.Order
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
		require.Len(t, result, 1)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		resp := doRequest(router, http.MethodGet, "/orders?status=bogus", "", false)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("log order", func(t *testing.T) {
		resp := doRequest(router, http.MethodPost, "/orders/1/log", placeBody, true)
		require.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestDepositAndHealthEndpoints(t *testing.T) {
	router, _, _, deposits := newTestRouter()
	deposits.deposits = []entities.Deposit{{ID: 1, Chain: "evm", TxID: "0xabc"}}

	resp := doRequest(router, http.MethodGet, "/deposits", "", false)
	require.Equal(t, http.StatusOK, resp.Code)

	var result []entities.Deposit
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result, 1)

	resp = doRequest(router, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, resp.Code)
}
