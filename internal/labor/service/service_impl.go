package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/warehq/warebill/internal/config"
	"github.com/warehq/warebill/internal/labor/allocator"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	BillingCfg *config.BillingConfigHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	billingCfg *config.BillingConfigHolder
}

func NewService(p ServiceParam) labordomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("labor.service"),
		billingCfg: p.BillingCfg,
	}
}

func (s *Service) CostReport(ctx context.Context, req labordomain.CostReportRequest) (labordomain.CostReportResponse, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return labordomain.CostReportResponse{}, labordomain.ErrInvalidOrganization
	}
	if !req.To.After(req.From) {
		return labordomain.CostReportResponse{}, labordomain.ErrInvalidTimeRange
	}
	extractor, ok := allocator.ForView(req.View)
	if !ok {
		return labordomain.CostReportResponse{}, labordomain.ErrInvalidView
	}

	var records []labordomain.TaskDurationRecord
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND completed_at >= ? AND completed_at < ?", orgID, req.From, req.To).
		Order("completed_at ASC").
		Find(&records).Error; err != nil {
		return labordomain.CostReportResponse{}, err
	}

	var profileRows []labordomain.EmployeePayProfile
	if err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Find(&profileRows).Error; err != nil {
		return labordomain.CostReportResponse{}, err
	}
	profiles := make(map[snowflake.ID]labordomain.EmployeePayProfile, len(profileRows))
	for _, profile := range profileRows {
		profiles[profile.EmployeeID] = profile
	}

	cfg := s.billingCfg.Get()
	buckets := allocator.Allocate(records, profiles, cfg.StandardWeeklyMinutes, cfg.WeekStartDay())
	groups := allocator.AllocateCost(
		records,
		buckets,
		profiles,
		decimal.NewFromFloat(cfg.OvertimeMultiplier),
		extractor,
	)

	namedBuckets := make(map[string]labordomain.Bucket, len(buckets))
	for employeeID, bucket := range buckets {
		namedBuckets[employeeID.String()] = bucket
	}

	return labordomain.CostReportResponse{
		Groups:  groups,
		Buckets: namedBuckets,
	}, nil
}
