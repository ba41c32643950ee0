package refund

import (
	"time"

	"coworking/internal/config"
	"coworking/internal/domain"
	"coworking/internal/modules/pricing"
)

type Policy struct {
	HighTierWindow       time.Duration
	HighPercentage       float64
	LowPercentage        float64
	MaxElapsedRatio      float64
	OwnerApprovalTimeout time.Duration
}

func PolicyFromConfig(p config.PolicyConfig) Policy {
	return Policy{
		HighTierWindow:       p.RefundHighTierWindow,
		HighPercentage:       p.RefundHighPercentage,
		LowPercentage:        p.RefundLowPercentage,
		MaxElapsedRatio:      p.RefundMaxElapsed,
		OwnerApprovalTimeout: p.OwnerApprovalTimeout,
	}
}

// Split is the frozen money breakdown of a refund request.
type Split struct {
	BasePrice        float64
	NonRefundableFee float64
	Percentage       float64
	Amount           float64
	SystemCut        float64
}

// Compute prices a refund for b requested at now. Tax and service fee are
// never returned; the base is the discounted room price.
func Compute(b *domain.Booking, now time.Time, p Policy) (Split, error) {
	span := b.StartUTC.Sub(b.CreatedAt)
	if span <= 0 {
		return Split{}, domain.Validationf("booking start is not after its creation")
	}
	elapsed := now.Sub(b.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if float64(elapsed) > p.MaxElapsedRatio*float64(span) {
		return Split{}, domain.Validationf("refund window closed: %s elapsed of %s before start", elapsed, span)
	}

	pct := p.LowPercentage
	if elapsed <= p.HighTierWindow {
		pct = p.HighPercentage
	}

	base := pricing.Round2(b.TotalPrice - b.DiscountAmount)
	if base < 0 {
		base = 0
	}
	amount := pricing.Round2(base * pct)
	return Split{
		BasePrice:        base,
		NonRefundableFee: pricing.Round2(b.TaxAmount + b.ServiceFee),
		Percentage:       pct,
		Amount:           amount,
		SystemCut:        pricing.Round2(base - amount),
	}, nil
}

// TimedOut reports whether the owner's decision window for r has lapsed at now.
func (p Policy) TimedOut(r *domain.RefundRequest, now time.Time) bool {
	return !now.Before(r.RequestedAt.Add(p.OwnerApprovalTimeout))
}
