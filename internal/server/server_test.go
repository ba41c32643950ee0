package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coworking/internal/config"
	"coworking/internal/database"
	"coworking/internal/domain"
	"coworking/internal/events"
	"coworking/internal/lock"
	"coworking/internal/logging"
	"coworking/internal/modules/payment"
	"coworking/internal/pkg/clock"
	"coworking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC)

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type suite struct {
	t      *testing.T
	app    *App
	repos  *repository.Repos
	cfg    *config.Config
	room   *domain.Room
	tokens map[domain.UserRole]string
}

const (
	clientID = 100
	staffID  = 200
	ownerID  = 300
)

func setupSuite(t *testing.T) *suite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test_secret_key_32_characters_min"
	cfg.Gateway.Merchant = "merchant"
	cfg.Gateway.Secret = "gateway-secret"
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000

	repos := repository.New(database.OpenTest(t))
	room := &domain.Room{OwnerID: ownerID, Name: "Loft", Capacity: 6, HourlyRate: 20, Currency: "USD", IsActive: true}
	require.NoError(t, repos.Rooms.Create(context.Background(), room))

	bus := events.NewEventBus()
	events.AttachMetrics(bus)

	app := New(Deps{
		Config:  cfg,
		Repos:   repos,
		Locker:  lock.NewLocalLocker(),
		Gateway: NewGateway(cfg.Gateway),
		Clock:   clock.NewManual(t0),
		Bus:     bus,
		Logger:  logging.Nop(),
	})

	s := &suite{t: t, app: app, repos: repos, cfg: cfg, room: room, tokens: map[domain.UserRole]string{}}
	for role, id := range map[domain.UserRole]int64{domain.RoleClient: clientID, domain.RoleStaff: staffID, domain.RoleOwner: ownerID} {
		tok, err := app.Tokens.GenerateToken(id, string(role))
		require.NoError(t, err)
		s.tokens[role] = tok
	}
	return s
}

func (s *suite) do(method, path string, role domain.UserRole, body any) (*httptest.ResponseRecorder, testResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok, ok := s.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var resp testResponse
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type bookingEnvelope struct {
	Booking struct {
		ID          int64   `json:"id"`
		Code        string  `json:"code"`
		Status      string  `json:"status"`
		FinalAmount float64 `json:"final_amount"`
	} `json:"booking"`
}

func (s *suite) createBooking(startIn time.Duration) bookingEnvelope {
	s.t.Helper()
	start := t0.Add(startIn)
	w, resp := s.do(http.MethodPost, "/api/v1/bookings", domain.RoleClient, map[string]any{
		"room_id":      s.room.ID,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(2 * time.Hour).Format(time.RFC3339),
		"participants": 2,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[bookingEnvelope](s.t, resp.Data)
}

func (s *suite) callback(code, paymentID, status string, amount float64) payment.CallbackRequest {
	req := payment.CallbackRequest{
		OrderID:   code,
		PaymentID: paymentID,
		Status:    status,
		Amount:    fmt.Sprintf("%.2f", amount),
		Currency:  "USD",
	}
	req.Token = payment.NewSigner(s.cfg.Gateway.Merchant, s.cfg.Gateway.Secret).Token(map[string]string{
		"Amount":    req.Amount,
		"Currency":  req.Currency,
		"OrderId":   req.OrderID,
		"PaymentId": req.PaymentID,
		"Status":    req.Status,
	})
	return req
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupSuite(t)

	w, _ := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := setupSuite(t)

	w, resp := s.do(http.MethodPost, "/api/v1/bookings", "", map[string]any{"room_id": s.room.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/rooms", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "room catalogue is public")
}

func TestBookingPaymentAndRefundFlow(t *testing.T) {
	s := setupSuite(t)
	b := s.createBooking(48 * time.Hour)
	assert.Equal(t, "pending_payment", b.Booking.Status)

	w, _ := s.do(http.MethodPost, "/api/v1/bookings", domain.RoleClient, map[string]any{
		"room_id":      s.room.ID,
		"start_time":   t0.Add(49 * time.Hour).Format(time.RFC3339),
		"end_time":     t0.Add(51 * time.Hour).Format(time.RFC3339),
		"participants": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code, "overlapping booking is rejected")

	bad := s.callback(b.Booking.Code, "PAY-1", "CONFIRMED", b.Booking.FinalAmount)
	bad.Token = "forged"
	w, resp := s.do(http.MethodPost, "/api/v1/payments/callback", "", bad)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_SIGNATURE", resp.Error.Code)

	cb := s.callback(b.Booking.Code, "PAY-1", "CONFIRMED", b.Booking.FinalAmount)
	for i, wantChanged := range []bool{true, false} {
		w, resp = s.do(http.MethodPost, "/api/v1/payments/callback", "", cb)
		require.Equal(t, http.StatusOK, w.Code, "callback %d: %s", i, w.Body.String())
		got := decode[struct {
			Changed bool `json:"changed"`
		}](t, resp.Data)
		assert.Equal(t, wantChanged, got.Changed)
	}

	w, resp = s.do(http.MethodGet, "/api/v1/bookings/"+b.Booking.Code, domain.RoleClient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode[bookingEnvelope](t, resp.Data).Booking.Status)

	w, _ = s.do(http.MethodPost, "/api/v1/refunds", domain.RoleClient, map[string]any{"booking_id": b.Booking.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = s.do(http.MethodPost, "/api/v1/refunds", domain.RoleStaff, map[string]any{"booking_id": b.Booking.ID, "notes": "plans changed"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	refund := decode[struct {
		Refund struct {
			ID     int64   `json:"id"`
			Status string  `json:"status"`
			Amount float64 `json:"calculated_refund_amount"`
		} `json:"refund"`
	}](t, resp.Data).Refund
	assert.Equal(t, "pending_owner_approval", refund.Status)
	assert.InDelta(t, 32, refund.Amount, 1e-9)

	w, _ = s.do(http.MethodPost, "/api/v1/refunds", domain.RoleStaff, map[string]any{"booking_id": b.Booking.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/refunds/%d/process", refund.ID), domain.RoleStaff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "owner window still open")

	w, resp = s.do(http.MethodGet, "/api/v1/owners/me/refunds", domain.RoleOwner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), fmt.Sprintf(`"id":%d`, refund.ID))

	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/refunds/%d/decision", refund.ID), domain.RoleOwner, map[string]any{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/refunds/%d/decision", refund.ID), domain.RoleOwner, map[string]any{"approve": false})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STATE_CONFLICT", resp.Error.Code)

	w, resp = s.do(http.MethodPost, fmt.Sprintf("/api/v1/refunds/%d/process", refund.ID), domain.RoleStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Data), "SBX-")

	w, resp = s.do(http.MethodGet, "/api/v1/bookings/"+b.Booking.Code, domain.RoleStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refunded", decode[bookingEnvelope](t, resp.Data).Booking.Status)

	w, _ = s.do(http.MethodPost, "/api/v1/bookings", domain.RoleClient, map[string]any{
		"room_id":      s.room.ID,
		"start_time":   t0.Add(49 * time.Hour).Format(time.RFC3339),
		"end_time":     t0.Add(51 * time.Hour).Format(time.RFC3339),
		"participants": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code, "refunded booking still holds its interval")
}

func TestCancelAndRoleGuards(t *testing.T) {
	s := setupSuite(t)
	b := s.createBooking(24 * time.Hour)

	w, _ := s.do(http.MethodPatch, "/api/v1/bookings/"+b.Booking.Code+"/check-in", domain.RoleClient, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/bookings/"+b.Booking.Code+"/cancel", domain.RoleClient, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := s.do(http.MethodPatch, "/api/v1/bookings/"+b.Booking.Code+"/cancel", domain.RoleClient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"changed":false`)

	w, _ = s.do(http.MethodPost, "/api/v1/promotions", domain.RoleClient, map[string]any{"discount_type": "fixed", "value": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
