package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/warehq/warebill/internal/audit/domain"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"github.com/warehq/warebill/internal/rate/repository"
	"github.com/warehq/warebill/internal/tenantctx"
	"github.com/warehq/warebill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     repository.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	repo     repository.Repository
	auditSvc auditdomain.Service
}

func NewService(p ServiceParam) ratedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rate.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

// Resolve returns the effective unit rate for a (service, class) key.
// Precedence: account adjustment over tenant base. The effective rate is
// floored at zero so adjustment math can never produce negative billing.
func (s *Service) Resolve(ctx context.Context, accountID snowflake.ID, serviceCode string, classCode *string) (ratedomain.ResolvedRate, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return ratedomain.ResolvedRate{}, err
	}

	serviceCode = strings.TrimSpace(serviceCode)
	if serviceCode == "" {
		return ratedomain.ResolvedRate{}, ratedomain.ErrInvalidServiceCode
	}

	base, err := s.repo.FindServiceRate(ctx, orgID, serviceCode, classCode)
	if err != nil {
		return ratedomain.ResolvedRate{}, err
	}
	if base == nil {
		return ratedomain.ResolvedRate{}, ratedomain.ErrRateNotFound
	}

	var adjustment *ratedomain.AccountAdjustment
	if accountID != 0 {
		adjustment, err = s.repo.FindAdjustment(ctx, orgID, accountID, serviceCode, classCode)
		if err != nil {
			return ratedomain.ResolvedRate{}, err
		}
	}

	if adjustment == nil {
		return ratedomain.ResolvedRate{
			Rate:   clampNonNegative(base.Rate),
			Source: ratedomain.RateSourceTenant,
		}, nil
	}

	var effective decimal.Decimal
	switch adjustment.AdjustmentType {
	case ratedomain.AdjustmentFixed:
		effective = base.Rate.Add(adjustment.AdjustmentValue)
	case ratedomain.AdjustmentPercentage:
		effective = base.Rate.Mul(decimal.NewFromInt(1).Add(adjustment.AdjustmentValue.Div(oneHundred)))
	case ratedomain.AdjustmentOverride:
		effective = adjustment.AdjustmentValue
	default:
		return ratedomain.ResolvedRate{}, ratedomain.ErrInvalidAdjustmentType
	}

	return ratedomain.ResolvedRate{
		Rate:   clampNonNegative(effective),
		Source: ratedomain.RateSourceAccount,
	}, nil
}

// CreateAdjustments applies a batch of adjustments for one account.
// Entries whose (service, class) key already has an adjustment are
// reported as skipped; the remainder of the batch is still created.
func (s *Service) CreateAdjustments(ctx context.Context, accountID snowflake.ID, entries []ratedomain.AdjustmentEntry) (ratedomain.BatchCreateResult, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return ratedomain.BatchCreateResult{}, err
	}
	if accountID == 0 {
		return ratedomain.BatchCreateResult{}, ratedomain.ErrInvalidAccount
	}

	for _, entry := range entries {
		if strings.TrimSpace(entry.ServiceCode) == "" {
			return ratedomain.BatchCreateResult{}, ratedomain.ErrInvalidServiceCode
		}
		if !entry.Type.Valid() {
			return ratedomain.BatchCreateResult{}, ratedomain.ErrInvalidAdjustmentType
		}
	}

	existing, err := s.repo.ListAdjustments(ctx, orgID, accountID)
	if err != nil {
		return ratedomain.BatchCreateResult{}, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, adjustment := range existing {
		taken[adjustmentKey(adjustment.ServiceCode, adjustment.ClassCode)] = struct{}{}
	}

	result := ratedomain.BatchCreateResult{
		Created: []ratedomain.AccountAdjustment{},
		Skipped: []ratedomain.AdjustmentEntry{},
	}
	now := time.Now().UTC()

	for _, entry := range entries {
		key := adjustmentKey(entry.ServiceCode, entry.ClassCode)
		if _, conflict := taken[key]; conflict {
			result.Skipped = append(result.Skipped, entry)
			continue
		}

		adjustment := ratedomain.AccountAdjustment{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			AccountID:       accountID,
			ServiceCode:     strings.TrimSpace(entry.ServiceCode),
			ClassCode:       entry.ClassCode,
			AdjustmentType:  entry.Type,
			AdjustmentValue: entry.Value,
			Notes:           entry.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.db.WithContext(ctx).Create(&adjustment).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				// A concurrent writer won the key; report it as skipped
				// like any other conflict.
				result.Skipped = append(result.Skipped, entry)
				continue
			}
			return ratedomain.BatchCreateResult{}, err
		}
		taken[key] = struct{}{}
		result.Created = append(result.Created, adjustment)
	}

	if len(result.Created) > 0 {
		accountRef := accountID.String()
		_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "adjustment.batch_created", "account", &accountRef, map[string]any{
			"created": len(result.Created),
			"skipped": len(result.Skipped),
		})
	}

	return result, nil
}

func (s *Service) ListAdjustments(ctx context.Context, accountID snowflake.ID) ([]ratedomain.AccountAdjustment, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if accountID == 0 {
		return nil, ratedomain.ErrInvalidAccount
	}
	return s.repo.ListAdjustments(ctx, orgID, accountID)
}

func (s *Service) UpdateAdjustment(ctx context.Context, id snowflake.ID, req ratedomain.UpdateAdjustmentRequest) (*ratedomain.AccountAdjustment, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, ratedomain.ErrInvalidAdjustmentType
	}

	adjustment, err := s.repo.FindAdjustmentByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if adjustment == nil {
		return nil, ratedomain.ErrAdjustmentNotFound
	}

	// Type switches replace the stored value wholesale; no renormalization
	// happens when moving between percentage and override.
	adjustment.AdjustmentType = req.Type
	adjustment.AdjustmentValue = req.Value
	if req.Notes != nil {
		adjustment.Notes = *req.Notes
	}
	adjustment.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(adjustment).Error; err != nil {
		return nil, err
	}

	targetID := adjustment.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "adjustment.updated", "account_adjustment", &targetID, map[string]any{
		"adjustment_type":  string(adjustment.AdjustmentType),
		"adjustment_value": adjustment.AdjustmentValue.String(),
	})
	return adjustment, nil
}

// DeleteAdjustment removes an adjustment, reverting the account to the
// tenant base rate for that key.
func (s *Service) DeleteAdjustment(ctx context.Context, id snowflake.ID) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	adjustment, err := s.repo.FindAdjustmentByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if adjustment == nil {
		return ratedomain.ErrAdjustmentNotFound
	}

	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&ratedomain.AccountAdjustment{}).Error; err != nil {
		return err
	}

	targetID := adjustment.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "adjustment.deleted", "account_adjustment", &targetID, map[string]any{
		"service_code": adjustment.ServiceCode,
	})
	return nil
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, ratedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func adjustmentKey(serviceCode string, classCode *string) string {
	key := strings.TrimSpace(serviceCode)
	if classCode != nil {
		key += "|" + *classCode
	}
	return key
}

func clampNonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
