package pricing

import (
	"math"
	"time"

	"coworking/internal/config"
	"coworking/internal/domain"
)

type RateBasis string

const (
	BasisHourly  RateBasis = "hourly"
	BasisDaily   RateBasis = "daily"
	BasisMonthly RateBasis = "monthly"
)

// Policy holds the rate-selection thresholds and surcharge rates.
type Policy struct {
	TaxRate          float64
	ServiceFeeRate   float64
	DailyThreshold   time.Duration
	MonthlyThreshold time.Duration
}

func PolicyFromConfig(p config.PolicyConfig) Policy {
	return Policy{
		TaxRate:          p.TaxRate,
		ServiceFeeRate:   p.ServiceFeeRate,
		DailyThreshold:   p.DailyThreshold,
		MonthlyThreshold: p.MonthlyThreshold,
	}
}

type Quote struct {
	RoomID       int64     `json:"room_id"`
	Participants int       `json:"participants"`
	Basis        RateBasis `json:"basis"`
	Units        float64   `json:"units"`
	UnitRate     float64   `json:"unit_rate"`
	TotalPrice   float64   `json:"total_price"`
	TaxAmount    float64   `json:"tax_amount"`
	ServiceFee   float64   `json:"service_fee"`
	FinalAmount  float64   `json:"final_amount"`
	Currency     string    `json:"currency"`
}

// Calculate prices a room for an interval. Long stays switch to the daily or
// monthly rate when the room has one; partial days and months round up.
func Calculate(room *domain.Room, iv domain.Interval, participants int, p Policy) (*Quote, error) {
	if participants <= 0 {
		return nil, domain.Validationf("participants must be positive")
	}
	if room.Capacity > 0 && participants > room.Capacity {
		return nil, domain.Validationf("room capacity is %d, requested %d participants", room.Capacity, participants)
	}
	d := iv.Duration()
	if d <= 0 {
		return nil, domain.Validationf("end must be after start")
	}

	q := &Quote{RoomID: room.ID, Participants: participants, Currency: room.Currency}
	switch {
	case p.MonthlyThreshold > 0 && d >= p.MonthlyThreshold && room.MonthlyRate > 0:
		q.Basis, q.UnitRate = BasisMonthly, room.MonthlyRate
		q.Units = math.Ceil(float64(d) / float64(p.MonthlyThreshold))
	case p.DailyThreshold > 0 && d >= p.DailyThreshold && room.DailyRate > 0:
		q.Basis, q.UnitRate = BasisDaily, room.DailyRate
		q.Units = math.Ceil(float64(d) / float64(p.DailyThreshold))
	default:
		q.Basis, q.UnitRate = BasisHourly, room.HourlyRate
		q.Units = d.Hours()
	}

	q.TotalPrice = Round2(q.Units * q.UnitRate)
	q.TaxAmount = Round2(q.TotalPrice * p.TaxRate)
	q.ServiceFee = Round2(q.TotalPrice * p.ServiceFeeRate)
	q.FinalAmount = FinalAmount(q.TotalPrice, q.TaxAmount, q.ServiceFee, 0)
	return q, nil
}

// FinalAmount is total + tax + fee - discount, never below zero.
func FinalAmount(total, tax, fee, discount float64) float64 {
	return math.Max(0, Round2(total+tax+fee-discount))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
