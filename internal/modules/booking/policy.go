package booking

import (
	"time"

	"coworking/internal/config"
	"coworking/internal/modules/pricing"
)

type Policy struct {
	Pricing        pricing.Policy
	MinLeadTime    time.Duration
	MaxAdvanceDays int
	OpeningHour    int
	ClosingHour    int
}

func PolicyFromConfig(p config.PolicyConfig) Policy {
	return Policy{
		Pricing:        pricing.PolicyFromConfig(p),
		MinLeadTime:    p.MinLeadTime,
		MaxAdvanceDays: p.MaxAdvanceDays,
		OpeningHour:    p.OpeningHour,
		ClosingHour:    p.ClosingHour,
	}
}
