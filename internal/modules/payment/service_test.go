package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coworking/internal/config"
	"coworking/internal/logging"
	"coworking/internal/modules/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) ConfirmPayment(ctx context.Context, in booking.ConfirmPaymentInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookings) FailPayment(ctx context.Context, code, reason string) (bool, error) {
	args := m.Called(ctx, code, reason)
	return args.Bool(0), args.Error(1)
}

func signed(s *Signer, req CallbackRequest) CallbackRequest {
	req.Token = s.Token(req.params())
	return req
}

func TestSigner_TokenIsOrderIndependentAndSecretBound(t *testing.T) {
	s := NewSigner("merchant", "secret")
	a := s.Token(map[string]string{"A": "1", "B": "2"})
	b := s.Token(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	other := NewSigner("merchant", "other")
	assert.NotEqual(t, a, other.Token(map[string]string{"A": "1", "B": "2"}))

	assert.True(t, s.Verify(map[string]string{"A": "1", "B": "2"}, strings.ToUpper(a)))
	assert.False(t, s.Verify(map[string]string{"A": "1", "B": "3"}, a))
}

func TestHandleCallback_ConfirmsPayment(t *testing.T) {
	signer := NewSigner("m", "s")
	bookings := new(mockBookings)
	svc := NewService(bookings, signer, "acme", logging.Nop())

	req := signed(signer, CallbackRequest{OrderID: "BK-1", PaymentID: "PAY-1", Status: "CONFIRMED", Amount: "40.20", Currency: "USD"})
	bookings.On("ConfirmPayment", mock.Anything, booking.ConfirmPaymentInput{
		Code: "BK-1", Provider: "acme", PaymentRef: "PAY-1", Amount: 40.20, Currency: "USD",
	}).Return(true, nil).Once()

	changed, err := svc.HandleCallback(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, changed)
	bookings.AssertExpectations(t)
}

func TestHandleCallback_RepeatIsAcknowledged(t *testing.T) {
	signer := NewSigner("m", "s")
	bookings := new(mockBookings)
	svc := NewService(bookings, signer, "acme", logging.Nop())

	req := signed(signer, CallbackRequest{OrderID: "BK-1", PaymentID: "PAY-1", Status: "success", Amount: "10", Currency: "USD"})
	bookings.On("ConfirmPayment", mock.Anything, mock.Anything).Return(false, nil).Twice()

	for i := 0; i < 2; i++ {
		changed, err := svc.HandleCallback(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, changed)
	}
	bookings.AssertExpectations(t)
}

func TestHandleCallback_FailedStatus(t *testing.T) {
	signer := NewSigner("m", "s")
	bookings := new(mockBookings)
	svc := NewService(bookings, signer, "acme", logging.Nop())

	req := signed(signer, CallbackRequest{OrderID: "BK-2", PaymentID: "PAY-2", Status: "REJECTED", Amount: "10", Currency: "USD"})
	bookings.On("FailPayment", mock.Anything, "BK-2", "gateway reported rejected").Return(true, nil).Once()

	changed, err := svc.HandleCallback(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, changed)
	bookings.AssertExpectations(t)
}

func TestHandleCallback_Rejects(t *testing.T) {
	signer := NewSigner("m", "s")

	tests := []struct {
		name string
		req  CallbackRequest
		want error
	}{
		{
			name: "bad signature",
			req:  CallbackRequest{OrderID: "BK-1", PaymentID: "P", Status: "CONFIRMED", Amount: "10", Currency: "USD", Token: "deadbeef"},
			want: ErrInvalidSignature,
		},
		{
			name: "bad amount",
			req:  signed(signer, CallbackRequest{OrderID: "BK-1", PaymentID: "P", Status: "CONFIRMED", Amount: "ten", Currency: "USD"}),
			want: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req:  signed(signer, CallbackRequest{OrderID: "BK-1", PaymentID: "P", Status: "CONFIRMED", Amount: "-1", Currency: "USD"}),
			want: ErrInvalidAmount,
		},
		{
			name: "unknown status",
			req:  signed(signer, CallbackRequest{OrderID: "BK-1", PaymentID: "P", Status: "PENDING", Amount: "10", Currency: "USD"}),
			want: ErrUnknownStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := new(mockBookings)
			svc := NewService(bookings, signer, "acme", logging.Nop())
			_, err := svc.HandleCallback(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.want))
			bookings.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestClient_ExecuteRefund(t *testing.T) {
	var got refundRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/refunds", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(refundResponse{Success: true, RefundID: "RF-9", Status: "APPROVED"})
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL + "/", Merchant: "m", Secret: "s"})
	res, err := c.ExecuteRefund(context.Background(), RefundCommand{TransactionID: "PAY-1", Amount: 29.9, Currency: "USD", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "RF-9", res.TransactionID)

	assert.Equal(t, int64(2990), got.Amount)
	assert.Equal(t, "m", got.Merchant)
	assert.Equal(t, NewSigner("m", "s").Token(map[string]string{"Amount": "2990", "Currency": "USD", "TransactionId": "PAY-1"}), got.Token)
}

func TestClient_ExecuteRefundDeclinedAndServerError(t *testing.T) {
	declined := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(refundResponse{Success: false, Status: "DECLINED"})
	}))
	defer declined.Close()

	res, err := NewClient(config.GatewayConfig{BaseURL: declined.URL}).ExecuteRefund(context.Background(), RefundCommand{TransactionID: "PAY-1", Amount: 1})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "DECLINED")

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer broken.Close()

	_, err = NewClient(config.GatewayConfig{BaseURL: broken.URL}).ExecuteRefund(context.Background(), RefundCommand{TransactionID: "PAY-1", Amount: 1})
	assert.Error(t, err)
}

func TestSandbox_ExecuteRefund(t *testing.T) {
	res, err := Sandbox{}.ExecuteRefund(context.Background(), RefundCommand{TransactionID: "PAY-1", Amount: 5})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.TransactionID, "SBX-"))

	res, err = Sandbox{}.ExecuteRefund(context.Background(), RefundCommand{})
	require.NoError(t, err)
	assert.False(t, res.Success)
}
