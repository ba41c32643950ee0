package domain

import (
	"database/sql/driver"
	"fmt"
)

type BookingStatus uint8

const (
	BookingPendingPayment BookingStatus = iota + 1
	BookingConfirmed
	BookingCancelled
	BookingRefunded
	BookingFailed
)

var bookingStatusNames = map[BookingStatus]string{
	BookingPendingPayment: "pending_payment",
	BookingConfirmed:      "confirmed",
	BookingCancelled:      "cancelled",
	BookingRefunded:       "refunded",
	BookingFailed:         "failed",
}

var bookingStatusByName = invert(bookingStatusNames)

func (s BookingStatus) String() string {
	if name, ok := bookingStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("booking_status(%d)", uint8(s))
}

func ParseBookingStatus(name string) (BookingStatus, error) {
	if s, ok := bookingStatusByName[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown booking status %q", name)
}

// Blocking reports whether a booking in this status still holds its interval.
// Only cancelled and failed bookings release it.
func (s BookingStatus) Blocking() bool {
	return s == BookingPendingPayment || s == BookingConfirmed || s == BookingRefunded
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingRefunded || s == BookingFailed
}

func (s BookingStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BookingStatus) UnmarshalText(b []byte) error {
	v, err := ParseBookingStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s BookingStatus) Value() (driver.Value, error) {
	if _, ok := bookingStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid booking status %d", uint8(s))
	}
	return s.String(), nil
}

func (s *BookingStatus) Scan(src any) error {
	name, err := scanName(src)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}

// BlockingBookingStatuses lists the stored names of statuses that hold a room.
func BlockingBookingStatuses() []string {
	return []string{
		BookingPendingPayment.String(),
		BookingConfirmed.String(),
		BookingRefunded.String(),
	}
}

type RefundStatus uint8

const (
	RefundPendingOwnerApproval RefundStatus = iota + 1
	RefundApprovedByOwner
	RefundApprovedByTimeout
	RefundRejected
	RefundProcessing
	RefundCompleted
	RefundFailed
)

var refundStatusNames = map[RefundStatus]string{
	RefundPendingOwnerApproval: "pending_owner_approval",
	RefundApprovedByOwner:      "approved_by_owner",
	RefundApprovedByTimeout:    "approved_by_timeout",
	RefundRejected:             "rejected",
	RefundProcessing:           "processing",
	RefundCompleted:            "completed",
	RefundFailed:               "failed",
}

var refundStatusByName = invert(refundStatusNames)

func (s RefundStatus) String() string {
	if name, ok := refundStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("refund_status(%d)", uint8(s))
}

func ParseRefundStatus(name string) (RefundStatus, error) {
	if s, ok := refundStatusByName[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown refund status %q", name)
}

// Active reports whether the request still blocks a new request for the same booking.
func (s RefundStatus) Active() bool {
	switch s {
	case RefundPendingOwnerApproval, RefundApprovedByOwner, RefundApprovedByTimeout, RefundProcessing:
		return true
	}
	return false
}

func (s RefundStatus) Approved() bool {
	return s == RefundApprovedByOwner || s == RefundApprovedByTimeout
}

func (s RefundStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RefundStatus) UnmarshalText(b []byte) error {
	v, err := ParseRefundStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s RefundStatus) Value() (driver.Value, error) {
	if _, ok := refundStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid refund status %d", uint8(s))
	}
	return s.String(), nil
}

func (s *RefundStatus) Scan(src any) error {
	name, err := scanName(src)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}

func ActiveRefundStatuses() []string {
	out := make([]string, 0, 4)
	for _, s := range []RefundStatus{RefundPendingOwnerApproval, RefundApprovedByOwner, RefundApprovedByTimeout, RefundProcessing} {
		out = append(out, s.String())
	}
	return out
}

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func scanName(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into status", src)
	}
}
