package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	"github.com/warehq/warebill/internal/clock"
	"github.com/warehq/warebill/internal/metrics"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"github.com/warehq/warebill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	RateSvc ratedomain.Service
	Metrics *metrics.Recorder
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	eventrepo repository.Repository[eventdomain.BillingEvent]
	rateSvc   ratedomain.Service
	metrics   *metrics.Recorder
}

func NewService(p ServiceParam) eventdomain.Service {
	return &Service{
		log:       p.Log.Named("billingevent.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		eventrepo: repository.ProvideStore[eventdomain.BillingEvent](p.DB),
		rateSvc:   p.RateSvc,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreateCharge(ctx context.Context, req eventdomain.CreateChargeRequest) (*eventdomain.BillingEvent, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, eventdomain.ErrInvalidOrganization
	}
	if req.AccountID == 0 {
		return nil, eventdomain.ErrInvalidAccount
	}
	if strings.TrimSpace(req.ChargeType) == "" {
		return nil, eventdomain.ErrInvalidChargeType
	}
	if req.Quantity.Sign() <= 0 {
		return nil, eventdomain.ErrInvalidQuantity
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	event := eventdomain.BillingEvent{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		AccountID:   req.AccountID,
		SidemarkID:  req.SidemarkID,
		EventType:   strings.TrimSpace(req.EventType),
		ChargeType:  strings.TrimSpace(req.ChargeType),
		ClassCode:   req.ClassCode,
		Description: req.Description,
		Quantity:    req.Quantity,
		Status:      eventdomain.EventStatusUnbilled,
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   s.clock.Now(),
	}

	switch {
	case req.UnitRate != nil:
		event.UnitRate = *req.UnitRate
	default:
		resolved, err := s.rateSvc.Resolve(ctx, req.AccountID, event.ChargeType, req.ClassCode)
		switch {
		case err == nil:
			event.UnitRate = resolved.Rate
		case errors.Is(err, ratedomain.ErrRateNotFound):
			// Missing price list entries surface on the event for manual
			// correction; the charge is still recorded.
			message := "no service rate for " + event.ChargeType
			if req.ClassCode != nil {
				message += "/" + *req.ClassCode
			}
			event.HasRateError = true
			event.RateErrorMessage = &message
			event.UnitRate = decimal.Zero
			s.metrics.RateError()
			s.log.Warn("rate resolution failed for charge",
				zap.String("charge_type", event.ChargeType),
				zap.String("account_id", req.AccountID.String()),
			)
		default:
			return nil, err
		}
	}

	event.TotalAmount = event.Quantity.Mul(event.UnitRate)

	if err := s.eventrepo.Create(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Service) CreateCharges(ctx context.Context, reqs []eventdomain.CreateChargeRequest) ([]*eventdomain.BillingEvent, error) {
	events := make([]*eventdomain.BillingEvent, 0, len(reqs))
	for _, req := range reqs {
		event, err := s.CreateCharge(ctx, req)
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}
