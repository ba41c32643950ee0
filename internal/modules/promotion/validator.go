package promotion

import (
	"context"
	"math"
	"strings"
	"time"

	"coworking/internal/domain"
	"coworking/internal/modules/pricing"
	"coworking/internal/pkg/clock"
)

// Repository is the subset of promotion storage the validator needs. Pass a
// transaction-bound implementation so redemption commits with the booking.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	IncrementUsage(ctx context.Context, id int64) (bool, error)
	CreateUsage(ctx context.Context, u *domain.PromotionUsage) error
}

type Discount struct {
	Promotion *domain.Promotion `json:"promotion"`
	UserID    int64             `json:"user_id"`
	Amount    float64           `json:"amount"`
}

type Validator struct {
	clock clock.Clock
}

func NewValidator(c clock.Clock) *Validator {
	return &Validator{clock: c}
}

// ValidateAndCalculateDiscount checks the code against its rules and prices the
// discount on totalAmount. roomOwnerID scopes host-specific codes.
func (v *Validator) ValidateAndCalculateDiscount(ctx context.Context, promos Repository, code string, userID int64, totalAmount float64, roomOwnerID int64) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.Validationf("promotion code is empty")
	}
	p, err := promos.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	amount, err := Evaluate(p, v.clock.Now(), totalAmount, roomOwnerID)
	if err != nil {
		return nil, err
	}
	return &Discount{Promotion: p, UserID: userID, Amount: amount}, nil
}

// Evaluate applies the eligibility rules in order: active, within the
// validity window, not exhausted, minimum amount met, scope matches.
func Evaluate(p *domain.Promotion, now time.Time, totalAmount float64, roomOwnerID int64) (float64, error) {
	if !p.IsActive {
		return 0, domain.Validationf("promotion %s is not active", p.Code)
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return 0, domain.Validationf("promotion %s is not valid at this time", p.Code)
	}
	if p.UsedCount >= p.UsageLimit {
		return 0, domain.Conflictf("promotion %s has reached its usage limit", p.Code)
	}
	if totalAmount < p.MinimumAmount {
		return 0, domain.Validationf("promotion %s requires a minimum amount of %.2f", p.Code, p.MinimumAmount)
	}
	if !p.Global() && *p.OwnerID != roomOwnerID {
		return 0, domain.Validationf("promotion %s does not apply to this room", p.Code)
	}

	var amount float64
	switch p.DiscountType {
	case domain.DiscountPercentage:
		amount = totalAmount * p.DiscountValue
	case domain.DiscountFixed:
		amount = math.Min(p.DiscountValue, totalAmount)
	default:
		return 0, domain.Validationf("promotion %s has unknown discount type %q", p.Code, p.DiscountType)
	}
	return pricing.Round2(math.Max(0, math.Min(amount, totalAmount))), nil
}

// RecordUsage redeems one use and links it to the booking. It must run in the
// booking's transaction; losing the race for the last use is a conflict.
func (v *Validator) RecordUsage(ctx context.Context, promos Repository, promotionID, bookingID, userID int64, amount float64) error {
	ok, err := promos.IncrementUsage(ctx, promotionID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Conflictf("promotion has reached its usage limit")
	}
	return promos.CreateUsage(ctx, &domain.PromotionUsage{
		PromotionID:    promotionID,
		BookingID:      bookingID,
		UserID:         userID,
		DiscountAmount: amount,
		UsedAt:         v.clock.Now(),
	})
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
