package repository

import (
	"context"
	"time"

	"coworking/internal/domain"

	"gorm.io/gorm"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, "promotion")
}

func (r *PromotionRepository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	var p domain.Promotion
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "promotion")
	}
	return &p, nil
}

func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	var p domain.Promotion
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, translate(err, "promotion")
	}
	return &p, nil
}

func (r *PromotionRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Promotion{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("promotion")
	}
	return nil
}

// IncrementUsage bumps used_count only while it is below the limit, so two
// concurrent redemptions cannot both take the last use.
func (r *PromotionRepository) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Promotion{}).
		Where("id = ? AND is_active = ? AND used_count < usage_limit", id, true).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PromotionRepository) CreateUsage(ctx context.Context, u *domain.PromotionUsage) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "promotion usage")
}

func (r *PromotionRepository) ListUsages(ctx context.Context, promotionID int64) ([]domain.PromotionUsage, error) {
	var out []domain.PromotionUsage
	err := r.db.WithContext(ctx).Where("promotion_id = ?", promotionID).Order("id").Find(&out).Error
	return out, err
}
