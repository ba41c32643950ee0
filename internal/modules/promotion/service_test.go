package promotion

import (
	"context"
	"strings"
	"testing"
	"time"

	"coworking/internal/domain"
	"coworking/internal/logging"
	"coworking/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	c := clock.NewManual(now)
	return NewService(newRepo(t), NewValidator(c), c, logging.Nop())
}

func validRequest() GenerateRequest {
	return GenerateRequest{
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: 0.1,
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(72 * time.Hour),
		UsageLimit:    10,
	}
}

func TestGenerate_OwnerScoped(t *testing.T) {
	s := newService(t)
	owner := domain.Actor{ID: 7, Role: domain.RoleOwner}

	p, err := s.Generate(context.Background(), owner, validRequest())
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	require.NotNil(t, p.OwnerID)
	assert.Equal(t, int64(7), *p.OwnerID)
	assert.True(t, strings.HasPrefix(p.Code, "PROMO-"))
	assert.Len(t, p.Code, len("PROMO-")+8)
}

func TestGenerate_AdminGlobalWithCode(t *testing.T) {
	s := newService(t)
	req := validRequest()
	req.Code = "welcome10"

	p, err := s.Generate(context.Background(), domain.Actor{ID: 1, Role: domain.RoleAdmin}, req)
	require.NoError(t, err)
	assert.True(t, p.Global())
	assert.Equal(t, "WELCOME10", p.Code)

	_, err = s.Generate(context.Background(), domain.Actor{ID: 1, Role: domain.RoleAdmin}, req)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGenerate_Rejects(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Generate(ctx, domain.Actor{ID: 2, Role: domain.RoleClient}, validRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req := validRequest()
	req.DiscountValue = 15
	_, err = s.Generate(ctx, domain.Actor{ID: 7, Role: domain.RoleOwner}, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = validRequest()
	req.EndDate = req.StartDate.Add(-time.Hour)
	_, err = s.Generate(ctx, domain.Actor{ID: 7, Role: domain.RoleOwner}, req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestActivate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	owner := domain.Actor{ID: 7, Role: domain.RoleOwner}
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	scoped, err := s.Generate(ctx, owner, validRequest())
	require.NoError(t, err)
	global, err := s.Generate(ctx, admin, validRequest())
	require.NoError(t, err)

	_, err = s.Activate(ctx, domain.Actor{ID: 8, Role: domain.RoleOwner}, scoped.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = s.Activate(ctx, owner, global.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err := s.Activate(ctx, owner, scoped.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	p, err = s.Activate(ctx, admin, global.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	_, err = s.Activate(ctx, admin, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	d, err := s.Preview(ctx, scoped.Code, 3, 200, 7)
	require.NoError(t, err)
	assert.InDelta(t, 20, d.Amount, 1e-9)
}
