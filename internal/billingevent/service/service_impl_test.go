package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	"github.com/warehq/warebill/internal/clock"
	"github.com/warehq/warebill/internal/metrics"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rateStub struct {
	rate   decimal.Decimal
	source ratedomain.RateSource
	err    error
	calls  int
}

func (r *rateStub) Resolve(_ context.Context, _ snowflake.ID, _ string, _ *string) (ratedomain.ResolvedRate, error) {
	r.calls++
	if r.err != nil {
		return ratedomain.ResolvedRate{}, r.err
	}
	return ratedomain.ResolvedRate{Rate: r.rate, Source: r.source}, nil
}

func (r *rateStub) CreateAdjustments(_ context.Context, _ snowflake.ID, _ []ratedomain.AdjustmentEntry) (ratedomain.BatchCreateResult, error) {
	return ratedomain.BatchCreateResult{}, nil
}

func (r *rateStub) ListAdjustments(_ context.Context, _ snowflake.ID) ([]ratedomain.AccountAdjustment, error) {
	return nil, nil
}

func (r *rateStub) UpdateAdjustment(_ context.Context, _ snowflake.ID, _ ratedomain.UpdateAdjustmentRequest) (*ratedomain.AccountAdjustment, error) {
	return nil, nil
}

func (r *rateStub) DeleteAdjustment(_ context.Context, _ snowflake.ID) error {
	return nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupChargeService(t *testing.T, rates *rateStub) (eventdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&eventdomain.BillingEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node := mustNode(t)
	service := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)),
		RateSvc: rates,
		Metrics: metrics.NewRecorder(),
	})
	return service, db, node
}

func TestCreateChargeCapturesResolvedRate(t *testing.T) {
	rates := &rateStub{rate: decimal.RequireFromString("4.5"), source: ratedomain.RateSourceAccount}
	service, db, node := setupChargeService(t, rates)
	orgID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), int64(orgID))

	event, err := service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		EventType:  "service_completed",
		ChargeType: "delivery",
		Quantity:   decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.Equal(t, 1, rates.calls)
	require.False(t, event.HasRateError)
	require.True(t, event.UnitRate.Equal(decimal.RequireFromString("4.5")))
	require.True(t, event.TotalAmount.Equal(decimal.NewFromInt(9)))
	require.Equal(t, eventdomain.EventStatusUnbilled, event.Status)

	var stored eventdomain.BillingEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	require.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(9)))
}

func TestCreateChargeMarksRateErrorAndPersists(t *testing.T) {
	rates := &rateStub{err: ratedomain.ErrRateNotFound}
	service, db, node := setupChargeService(t, rates)
	orgID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), int64(orgID))

	class := "fragile"
	event, err := service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		ChargeType: "storage",
		ClassCode:  &class,
		Quantity:   decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	require.True(t, event.HasRateError)
	require.NotNil(t, event.RateErrorMessage)
	require.Equal(t, "no service rate for storage/fragile", *event.RateErrorMessage)
	require.True(t, event.UnitRate.IsZero())
	require.True(t, event.TotalAmount.IsZero())

	var stored eventdomain.BillingEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	require.True(t, stored.HasRateError)
}

func TestCreateChargeManualRateBypassesResolution(t *testing.T) {
	rates := &rateStub{err: ratedomain.ErrRateNotFound}
	service, _, node := setupChargeService(t, rates)
	orgID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), int64(orgID))

	manual := decimal.RequireFromString("12.25")
	event, err := service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		ChargeType: "special_handling",
		Quantity:   decimal.NewFromInt(4),
		UnitRate:   &manual,
	})
	require.NoError(t, err)
	require.Zero(t, rates.calls)
	require.False(t, event.HasRateError)
	require.True(t, event.TotalAmount.Equal(decimal.NewFromInt(49)))
}

func TestCreateChargeValidation(t *testing.T) {
	service, _, node := setupChargeService(t, &rateStub{rate: decimal.NewFromInt(1)})
	orgID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), int64(orgID))

	_, err := service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		ChargeType: "storage",
		Quantity:   decimal.Zero,
	})
	require.ErrorIs(t, err, eventdomain.ErrInvalidQuantity)

	_, err = service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		ChargeType: "   ",
		Quantity:   decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, eventdomain.ErrInvalidChargeType)

	_, err = service.CreateCharge(ctx, eventdomain.CreateChargeRequest{
		ChargeType: "storage",
		Quantity:   decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, eventdomain.ErrInvalidAccount)

	_, err = service.CreateCharge(context.Background(), eventdomain.CreateChargeRequest{
		AccountID:  node.Generate(),
		ChargeType: "storage",
		Quantity:   decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, eventdomain.ErrInvalidOrganization)
}

func TestCreateChargesBatchSurvivesRateErrors(t *testing.T) {
	rates := &rateStub{err: ratedomain.ErrRateNotFound}
	service, _, node := setupChargeService(t, rates)
	orgID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), int64(orgID))
	accountID := node.Generate()

	manual := decimal.NewFromInt(5)
	events, err := service.CreateCharges(ctx, []eventdomain.CreateChargeRequest{
		{AccountID: accountID, ChargeType: "storage", Quantity: decimal.NewFromInt(1)},
		{AccountID: accountID, ChargeType: "delivery", Quantity: decimal.NewFromInt(2), UnitRate: &manual},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].HasRateError)
	require.False(t, events[1].HasRateError)
	require.True(t, events[1].TotalAmount.Equal(decimal.NewFromInt(10)))
}
