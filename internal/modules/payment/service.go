package payment

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"coworking/internal/modules/booking"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownStatus    = errors.New("unknown payment status")
)

type BookingPayments interface {
	ConfirmPayment(ctx context.Context, in booking.ConfirmPaymentInput) (bool, error)
	FailPayment(ctx context.Context, code, reason string) (bool, error)
}

// Service handles gateway notifications for booking payments.
type Service struct {
	bookings BookingPayments
	signer   *Signer
	provider string
	logger   *zerolog.Logger
}

func NewService(bookings BookingPayments, signer *Signer, provider string, logger *zerolog.Logger) *Service {
	return &Service{bookings: bookings, signer: signer, provider: provider, logger: logger}
}

// HandleCallback verifies the token and routes the notification to the
// booking lifecycle. Repeated notifications are acknowledged without changes.
func (s *Service) HandleCallback(ctx context.Context, req CallbackRequest) (bool, error) {
	valid := s.signer.Verify(req.params(), req.Token)
	s.logger.Info().Str("order_id", req.OrderID).Str("payment_id", req.PaymentID).Str("status", req.Status).Bool("signature_valid", valid).Msg("payment callback")
	if !valid {
		return false, ErrInvalidSignature
	}

	switch strings.ToUpper(strings.TrimSpace(req.Status)) {
	case "CONFIRMED", "SUCCESS", "PAID":
		amount, ok := parseAmount(req.Amount)
		if !ok {
			return false, ErrInvalidAmount
		}
		changed, err := s.bookings.ConfirmPayment(ctx, booking.ConfirmPaymentInput{
			Code:       req.OrderID,
			Provider:   s.provider,
			PaymentRef: req.PaymentID,
			Amount:     amount,
			Currency:   req.Currency,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("payment confirmation failed")
			return false, err
		}
		if !changed {
			s.logger.Info().Str("order_id", req.OrderID).Msg("idempotent callback already confirmed")
		}
		return changed, nil
	case "FAILED", "REJECTED", "CANCELLED", "EXPIRED":
		changed, err := s.bookings.FailPayment(ctx, req.OrderID, "gateway reported "+strings.ToLower(req.Status))
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("payment failure handling failed")
		}
		return changed, err
	default:
		return false, ErrUnknownStatus
	}
}

// parseAmount reads a decimal string exactly, rejecting negatives.
func parseAmount(v string) (float64, bool) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(v))
	if !ok || r.Sign() < 0 {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}
