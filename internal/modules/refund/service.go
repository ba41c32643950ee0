package refund

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coworking/internal/domain"
	"coworking/internal/events"
	"coworking/internal/modules/payment"
	"coworking/internal/pkg/clock"
	"coworking/internal/repository"

	"github.com/rs/zerolog"
)

// settleTimeout bounds the writes that record a gateway outcome.
const settleTimeout = 10 * time.Second

type Gateway interface {
	ExecuteRefund(ctx context.Context, cmd payment.RefundCommand) (*payment.RefundResult, error)
}

// BookingLifecycle is the part of the booking state machine a refund drives.
type BookingLifecycle interface {
	LockRoom(ctx context.Context, roomID int64) (func(), error)
	MarkRefunded(ctx context.Context, tx *repository.Repos, bookingID int64) (*domain.Booking, error)
	PublishRefunded(b *domain.Booking, actorID int64)
}

type Service struct {
	repos    *repository.Repos
	bookings BookingLifecycle
	gateway  Gateway
	policy   Policy
	clock    clock.Clock
	bus      *events.EventBus
	logger   *zerolog.Logger
}

func NewService(repos *repository.Repos, bookings BookingLifecycle, gateway Gateway, policy Policy, c clock.Clock, bus *events.EventBus, logger *zerolog.Logger) *Service {
	return &Service{
		repos:    repos,
		bookings: bookings,
		gateway:  gateway,
		policy:   policy,
		clock:    c,
		bus:      bus,
		logger:   logger,
	}
}

// RequestRefund opens a refund for a confirmed, paid booking. The split is
// computed now and frozen into the request.
func (s *Service) RequestRefund(ctx context.Context, actor domain.Actor, bookingID int64, notes string) (*domain.RefundRequest, error) {
	if !actor.IsStaff() {
		return nil, domain.Forbiddenf("only staff can request refunds")
	}

	var req *domain.RefundRequest
	err := s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		b, err := tx.Bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingConfirmed {
			return domain.StateConflict("booking", "refund", b.Status)
		}
		if !b.HasPaymentRef() {
			return domain.Validationf("booking %s has no payment reference", b.Code)
		}

		active, err := tx.Refunds.GetActiveByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.Conflictf("booking %s already has refund request %d in status %s", b.Code, active.ID, active.Status)
		}

		room, err := tx.Rooms.GetByID(ctx, b.RoomID)
		if err != nil {
			return err
		}

		now := s.now()
		split, err := Compute(b, now, s.policy)
		if err != nil {
			return err
		}

		req = &domain.RefundRequest{
			BookingID:        b.ID,
			RequestedBy:      actor.ID,
			OwnerID:          room.OwnerID,
			Status:           domain.RefundPendingOwnerApproval,
			RequestedAt:      now,
			StaffNotes:       strings.TrimSpace(notes),
			BasePrice:        split.BasePrice,
			NonRefundableFee: split.NonRefundableFee,
			RefundPercentage: split.Percentage,
			RefundAmount:     split.Amount,
			SystemCut:        split.SystemCut,
			Currency:         b.Currency,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.Refunds.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("refund_id", req.ID).Int64("booking_id", bookingID).Float64("amount", req.RefundAmount).Float64("percentage", req.RefundPercentage).Msg("refund requested")
	s.publish(events.EventRefundRequested, req, actor.ID, "")
	return req, nil
}

// ApproveRefund records the owner's one-time decision. It returns whether
// the request was approved.
func (s *Service) ApproveRefund(ctx context.Context, actor domain.Actor, refundID int64, approve bool, notes string) (bool, error) {
	var req *domain.RefundRequest
	err := s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Refunds.GetByID(ctx, refundID)
		if err != nil {
			return err
		}
		if cur.OwnerID != actor.ID {
			return domain.Forbiddenf("only the room owner can decide on this refund")
		}
		if cur.Status != domain.RefundPendingOwnerApproval {
			return domain.StateConflict("refund request", "decide", cur.Status)
		}

		now := s.now()
		fields := map[string]any{
			"owner_decided_at": now,
			"owner_notes":      strings.TrimSpace(notes),
			"updated_at":       now,
		}
		next := domain.RefundRejected
		if approve {
			next = domain.RefundApprovedByOwner
			fields["approval_source"] = string(domain.ApprovedByOwner)
		}
		fields["status"] = next

		ok, err := tx.Refunds.TransitionFrom(ctx, cur.ID, domain.RefundPendingOwnerApproval, fields)
		if err != nil {
			return err
		}
		if !ok {
			return s.raced(ctx, tx, cur.ID, "decide")
		}
		cur.Status = next
		cur.OwnerDecidedAt = &now
		if approve {
			cur.ApprovalSource = domain.ApprovedByOwner
		}
		req = cur
		return nil
	})
	if err != nil {
		return false, err
	}

	event := events.EventRefundRejected
	if approve {
		event = events.EventRefundApproved
	}
	s.logger.Info().Int64("refund_id", refundID).Bool("approved", approve).Int64("owner_id", actor.ID).Msg("refund decided")
	s.publish(event, req, actor.ID, "")
	return approve, nil
}

// ProcessRefund executes an approved refund through the gateway. A request
// still awaiting its owner past the approval window is first marked
// ApprovedByTimeout. Returns the gateway transaction id.
func (s *Service) ProcessRefund(ctx context.Context, actor domain.Actor, refundID int64, ipAddress string) (string, error) {
	if !actor.IsStaff() {
		return "", domain.Forbiddenf("only staff can process refunds")
	}

	req, b, timedOut, err := s.startProcessing(ctx, actor, refundID)
	if err != nil {
		return "", err
	}
	if timedOut {
		s.publish(events.EventRefundApproved, req, actor.ID, "owner approval timed out")
	}

	res, gwErr := s.execute(ctx, payment.RefundCommand{
		TransactionID: *b.PaymentRef,
		Amount:        req.RefundAmount,
		Currency:      req.Currency,
		IPAddress:     ipAddress,
		ActorID:       actor.ID,
		Memo:          fmt.Sprintf("refund %d for booking %s", req.ID, b.Code),
	})
	if gwErr == nil && !res.Success {
		msg := res.Message
		if strings.TrimSpace(msg) == "" {
			msg = "gateway declined refund"
		}
		gwErr = errors.New(msg)
	}

	// The gateway has answered; its outcome is recorded even if the caller has gone.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if gwErr != nil {
		return "", s.fail(sctx, actor, req, gwErr)
	}
	return s.complete(sctx, actor, req, b, res.TransactionID)
}

// startProcessing moves the request into Processing and returns it with its booking.
func (s *Service) startProcessing(ctx context.Context, actor domain.Actor, refundID int64) (*domain.RefundRequest, *domain.Booking, bool, error) {
	var (
		req      *domain.RefundRequest
		b        *domain.Booking
		timedOut bool
	)
	err := s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		cur, err := tx.Refunds.GetByID(ctx, refundID)
		if err != nil {
			return err
		}
		now := s.now()

		switch {
		case cur.Status.Approved():
		case cur.Status == domain.RefundPendingOwnerApproval:
			if !s.policy.TimedOut(cur, now) {
				return domain.Validationf("owner approval window open until %s", cur.RequestedAt.Add(s.policy.OwnerApprovalTimeout).Format(time.RFC3339))
			}
			notes := appendNote(cur.StaffNotes, now, fmt.Sprintf("approved by timeout: no owner decision within %s (staff %d)", s.policy.OwnerApprovalTimeout, actor.ID))
			ok, err := tx.Refunds.TransitionFrom(ctx, cur.ID, domain.RefundPendingOwnerApproval, map[string]any{
				"status":          domain.RefundApprovedByTimeout,
				"approval_source": string(domain.ApprovedByTimeout),
				"staff_notes":     notes,
				"updated_at":      now,
			})
			if err != nil {
				return err
			}
			if !ok {
				return s.raced(ctx, tx, cur.ID, "process")
			}
			cur.Status = domain.RefundApprovedByTimeout
			cur.ApprovalSource = domain.ApprovedByTimeout
			cur.StaffNotes = notes
			timedOut = true
		default:
			return domain.StateConflict("refund request", "process", cur.Status)
		}

		bk, err := tx.Bookings.GetByID(ctx, cur.BookingID)
		if err != nil {
			return err
		}
		if bk.Status != domain.BookingConfirmed {
			return domain.StateConflict("booking", "refund", bk.Status)
		}
		if !bk.HasPaymentRef() {
			return domain.Validationf("booking %s has no payment reference", bk.Code)
		}

		actorID := actor.ID
		ok, err := tx.Refunds.TransitionFrom(ctx, cur.ID, cur.Status, map[string]any{
			"status":       domain.RefundProcessing,
			"processed_by": actorID,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.raced(ctx, tx, cur.ID, "process")
		}
		cur.Status = domain.RefundProcessing
		cur.ProcessedBy = &actorID
		req, b = cur, bk
		return nil
	})
	return req, b, timedOut, err
}

// execute calls the gateway, converting a panic into an error.
func (s *Service) execute(ctx context.Context, cmd payment.RefundCommand) (res *payment.RefundResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("gateway panic: %v", p)
		}
	}()
	res, err = s.gateway.ExecuteRefund(ctx, cmd)
	if err == nil && res == nil {
		err = errors.New("gateway returned no result")
	}
	return res, err
}

func (s *Service) fail(ctx context.Context, actor domain.Actor, req *domain.RefundRequest, cause error) error {
	now := s.now()
	reason := cause.Error()
	notes := appendNote(req.StaffNotes, now, "gateway refund failed: "+reason)

	ok, err := s.repos.Refunds.TransitionFrom(ctx, req.ID, domain.RefundProcessing, map[string]any{
		"status":         domain.RefundFailed,
		"failure_reason": reason,
		"staff_notes":    notes,
		"processed_at":   now,
		"updated_at":     now,
	})
	switch {
	case err != nil:
		s.logger.Error().Err(err).Int64("refund_id", req.ID).Str("reason", reason).Msg("failed to record refund failure")
	case !ok:
		ev := s.logger.Error().Int64("refund_id", req.ID).Str("reason", reason)
		if cur, gerr := s.repos.Refunds.GetByID(ctx, req.ID); gerr != nil {
			ev = ev.AnErr("reload_error", gerr)
		} else {
			ev = ev.Stringer("current_status", cur.Status)
		}
		ev.Msg("refund left processing before its failure was recorded")
	default:
		req.Status = domain.RefundFailed
		req.FailureReason = reason
		req.StaffNotes = notes
		s.publish(events.EventRefundFailed, req, actor.ID, reason)
	}

	s.logger.Warn().Int64("refund_id", req.ID).Int64("booking_id", req.BookingID).Str("reason", reason).Msg("refund failed")
	return domain.External("payment gateway refund failed", cause)
}

func (s *Service) complete(ctx context.Context, actor domain.Actor, req *domain.RefundRequest, b *domain.Booking, txnID string) (string, error) {
	unlock, err := s.bookings.LockRoom(ctx, b.RoomID)
	if err != nil {
		s.recordStuck(ctx, req, txnID, err)
		return "", err
	}
	defer unlock()

	var refunded *domain.Booking
	now := s.now()
	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		ok, err := tx.Refunds.TransitionFrom(ctx, req.ID, domain.RefundProcessing, map[string]any{
			"status":                 domain.RefundCompleted,
			"gateway_transaction_id": txnID,
			"processed_at":           now,
			"updated_at":             now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.raced(ctx, tx, req.ID, "complete")
		}
		refunded, err = s.bookings.MarkRefunded(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		s.recordStuck(ctx, req, txnID, err)
		return "", err
	}

	req.Status = domain.RefundCompleted
	req.GatewayTransactionID = &txnID
	req.ProcessedAt = &now

	s.logger.Info().Int64("refund_id", req.ID).Int64("booking_id", b.ID).Str("gateway_transaction_id", txnID).Float64("amount", req.RefundAmount).Msg("refund completed")
	s.publish(events.EventRefundCompleted, req, actor.ID, "")
	s.bookings.PublishRefunded(refunded, actor.ID)
	return txnID, nil
}

// recordStuck notes a gateway success that could not be committed locally.
// The request stays in Processing for manual reconciliation.
func (s *Service) recordStuck(ctx context.Context, req *domain.RefundRequest, txnID string, cause error) {
	reason := fmt.Sprintf("gateway refunded %s but completion failed: %v", txnID, cause)
	if _, err := s.repos.Refunds.TransitionFrom(ctx, req.ID, domain.RefundProcessing, map[string]any{
		"failure_reason":         reason,
		"gateway_transaction_id": txnID,
	}); err != nil {
		s.logger.Error().Err(err).Int64("refund_id", req.ID).Msg("failed to record refund reconciliation detail")
	}
	s.logger.Error().Err(cause).Int64("refund_id", req.ID).Str("gateway_transaction_id", txnID).Msg("refund needs reconciliation")
}

// GetRefundRequest is visible to staff, the room owner and the booking's customer.
func (s *Service) GetRefundRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.RefundRequest, error) {
	req, err := s.repos.Refunds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff() || req.OwnerID == actor.ID {
		return req, nil
	}
	b, err := s.repos.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actor.ID {
		return nil, domain.NotFound("refund request")
	}
	return req, nil
}

func (s *Service) ListPendingForOwner(ctx context.Context, ownerID int64) ([]domain.RefundRequest, error) {
	return s.repos.Refunds.ListPendingForOwner(ctx, ownerID)
}

// ListOverdue returns pending requests whose owner window has lapsed at now.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]domain.RefundRequest, error) {
	return s.repos.Refunds.ListPendingSince(ctx, domain.NormalizeTime(now).Add(-s.policy.OwnerApprovalTimeout))
}

func (s *Service) Policy() Policy { return s.policy }

// raced reports the status another actor moved the request into.
func (s *Service) raced(ctx context.Context, tx *repository.Repos, id int64, action string) error {
	cur, err := tx.Refunds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return domain.StateConflict("refund request", action, cur.Status)
}

func (s *Service) now() time.Time {
	return domain.NormalizeTime(s.clock.Now())
}

func (s *Service) publish(event string, r *domain.RefundRequest, actorID int64, detail string) {
	if err := s.bus.PublishJSON(event, events.NewRefundPayload(r, actorID, detail)); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Int64("refund_id", r.ID).Msg("failed to publish event")
	}
}

func appendNote(notes string, at time.Time, line string) string {
	entry := "[" + at.Format(time.RFC3339) + "] " + line
	if strings.TrimSpace(notes) == "" {
		return entry
	}
	return notes + "\n" + entry
}
