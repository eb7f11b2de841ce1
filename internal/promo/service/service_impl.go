package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/warehq/warebill/internal/clock"
	promodomain "github.com/warehq/warebill/internal/promo/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p ServiceParam) promodomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("promo.service"),
		clock: p.Clock,
	}
}

func (s *Service) WithTrx(tx *gorm.DB) promodomain.Service {
	return &Service{
		db:    tx,
		log:   s.log,
		clock: s.clock,
	}
}

func (s *Service) BestDiscount(ctx context.Context, accountID snowflake.ID, serviceCode string, total decimal.Decimal) (*promodomain.Discount, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, promodomain.ErrInvalidOrganization
	}
	if accountID == 0 {
		return nil, promodomain.ErrInvalidAccount
	}

	codes, err := s.listAssignedCodes(ctx, orgID, accountID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, nil
	}

	return promodomain.SelectBest(codes, serviceCode, total, s.clock.Now()), nil
}

func (s *Service) RecordUse(ctx context.Context, promoCodeID snowflake.ID) error {
	// Conditional increment so a concurrent consumer cannot push the
	// counter past a limited code's cap.
	result := s.db.WithContext(ctx).Exec(
		`UPDATE promo_codes
		 SET usage_count = usage_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		   AND (usage_limit_type = ? OR usage_count < usage_limit)`,
		promoCodeID,
		promodomain.UsageUnlimited,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return promodomain.ErrUsageLimitReached
	}
	return nil
}

func (s *Service) listAssignedCodes(ctx context.Context, orgID, accountID snowflake.ID) ([]promodomain.PromoCode, error) {
	var codes []promodomain.PromoCode
	err := s.db.WithContext(ctx).
		Joins("JOIN account_promo_assignments apa ON apa.promo_code_id = promo_codes.id").
		Where("apa.org_id = ? AND apa.account_id = ?", orgID, accountID).
		Where("promo_codes.org_id = ?", orgID).
		Order("promo_codes.created_at ASC").
		Find(&codes).Error
	return codes, err
}
