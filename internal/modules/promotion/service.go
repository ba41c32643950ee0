package promotion

import (
	"context"
	"strings"

	"coworking/internal/domain"
	"coworking/internal/pkg/clock"
	"coworking/internal/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Repository
	Create(ctx context.Context, p *domain.Promotion) error
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service manages promotion codes for hosts and admins.
type Service struct {
	store     Store
	validator *Validator
	clock     clock.Clock
	logger    *zerolog.Logger
}

func NewService(store Store, v *Validator, c clock.Clock, logger *zerolog.Logger) *Service {
	return &Service{store: store, validator: v, clock: c, logger: logger}
}

// Generate creates an inactive code. Owners get codes scoped to their rooms,
// admins get global codes.
func (s *Service) Generate(ctx context.Context, actor domain.Actor, req GenerateRequest) (*domain.Promotion, error) {
	if actor.Role != domain.RoleOwner && actor.Role != domain.RoleAdmin {
		return nil, domain.Forbiddenf("only owners and admins can create promotions")
	}
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if req.DiscountType == domain.DiscountPercentage && req.DiscountValue > 1 {
		return nil, domain.Validationf("percentage discount must be a fraction between 0 and 1")
	}

	code := NormalizeCode(req.Code)
	if code == "" {
		code = "PROMO-" + strings.ToUpper(uuid.NewString()[:8])
	}

	p := &domain.Promotion{
		Code:          code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinimumAmount: req.MinimumAmount,
		StartDate:     domain.NormalizeTime(req.StartDate),
		EndDate:       domain.NormalizeTime(req.EndDate),
		UsageLimit:    req.UsageLimit,
		IsActive:      false,
		CreatedBy:     actor.ID,
	}
	if actor.Role == domain.RoleOwner {
		owner := actor.ID
		p.OwnerID = &owner
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("promotion_id", p.ID).Str("code", p.Code).Int64("actor_id", actor.ID).Msg("promotion generated")
	return p, nil
}

// Activate enables a code. Host codes are activated by their host, global codes by an admin.
func (s *Service) Activate(ctx context.Context, actor domain.Actor, id int64) (*domain.Promotion, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Global() {
		if actor.Role != domain.RoleAdmin {
			return nil, domain.Forbiddenf("only an admin can activate a global promotion")
		}
	} else if actor.Role != domain.RoleAdmin && *p.OwnerID != actor.ID {
		return nil, domain.Forbiddenf("promotion belongs to another host")
	}
	if p.IsActive {
		return p, nil
	}
	if err := s.store.SetActive(ctx, id, true); err != nil {
		return nil, err
	}
	p.IsActive = true
	s.logger.Info().Int64("promotion_id", p.ID).Int64("actor_id", actor.ID).Msg("promotion activated")
	return p, nil
}

// Preview validates a code against an amount without redeeming it.
func (s *Service) Preview(ctx context.Context, code string, userID int64, totalAmount float64, roomOwnerID int64) (*Discount, error) {
	return s.validator.ValidateAndCalculateDiscount(ctx, s.store, code, userID, totalAmount, roomOwnerID)
}
