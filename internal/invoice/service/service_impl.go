package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	auditdomain "github.com/warehq/warebill/internal/audit/domain"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	"github.com/warehq/warebill/internal/config"
	invoicedomain "github.com/warehq/warebill/internal/invoice/domain"
	"github.com/warehq/warebill/internal/metrics"
	promodomain "github.com/warehq/warebill/internal/promo/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	PromoSvc   promodomain.Service
	AuditSvc   auditdomain.Service
	Metrics    *metrics.Recorder
	BillingCfg *config.BillingConfigHolder
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	promoSvc   promodomain.Service
	auditSvc   auditdomain.Service
	metrics    *metrics.Recorder
	billingCfg *config.BillingConfigHolder
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		promoSvc:   p.PromoSvc,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
		billingCfg: p.BillingCfg,
	}
}

// CreateDraft selects unbilled events for the period, validates the
// grouping against the selection, then claims events and writes drafts
// inside one transaction. The per-event claim is a conditional update,
// so two concurrent calls over overlapping selections cannot both bill
// the same event: the loser's draft shrinks, it does not error.
func (s *Service) CreateDraft(ctx context.Context, req invoicedomain.CreateDraftRequest) ([]invoicedomain.InvoiceDraft, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, invoicedomain.ErrInvalidOrganization
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, invoicedomain.ErrInvalidPeriod
	}
	switch req.Grouping {
	case invoicedomain.GroupSingle, invoicedomain.GroupByAccount,
		invoicedomain.GroupBySidemark, invoicedomain.GroupByAccountSidemark:
	default:
		return nil, invoicedomain.ErrInvalidGrouping
	}
	if req.Grouping == invoicedomain.GroupBySidemark && (req.AccountID == nil || *req.AccountID == 0) {
		return nil, invoicedomain.ErrInvalidAccount
	}
	lineSort := req.LineSort
	if lineSort == "" {
		lineSort = invoicedomain.LineSort(s.billingCfg.Get().DefaultLineSort)
	}
	if lineSort == "" {
		lineSort = invoicedomain.SortByDate
	}

	var drafts []invoicedomain.InvoiceDraft
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events, err := s.selectUnbilled(ctx, tx, orgID, req)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		// Structural validation happens before any claim so a grouping
		// error can never leave claimed events without a draft.
		groups, err := groupSelection(events, req.Grouping)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		batchID := uuid.NewString()

		// Usage accounting must live and die with this transaction: a
		// rollback that released the claimed events but kept a limited
		// code's usage_count would burn the code with no invoice issued.
		promos := s.promoSvc.WithTrx(tx)

		for _, group := range groups {
			draft, err := s.assembleDraft(ctx, tx, promos, orgID, batchID, group, req, lineSort, now)
			if err != nil {
				return err
			}
			if draft == nil {
				continue
			}
			drafts = append(drafts, *draft)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Counters move only after the commit so an aborted run cannot
	// inflate them.
	for i := range drafts {
		targetID := drafts[i].ID.String()
		_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "invoice.draft_created", "invoice", &targetID, map[string]any{
			"account_id": drafts[i].AccountID.String(),
			"batch_id":   drafts[i].BatchID,
			"grouping":   string(req.Grouping),
			"total":      drafts[i].Total.String(),
			"lines":      len(drafts[i].Lines),
		})
		s.metrics.DraftCreated(string(req.Grouping))
		for _, line := range drafts[i].Lines {
			switch line.Kind {
			case invoicedomain.LineKindCharge:
				s.metrics.EventsClaimed(1)
			case invoicedomain.LineKindDiscount:
				s.metrics.DiscountApplied()
			}
		}
	}
	return drafts, nil
}

func (s *Service) selectUnbilled(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, req invoicedomain.CreateDraftRequest) ([]eventdomain.BillingEvent, error) {
	stmt := tx.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, eventdomain.EventStatusUnbilled).
		Where("occurred_at <= ?", req.PeriodEnd)
	if !req.IncludeEarlierUnbilled {
		stmt = stmt.Where("occurred_at >= ?", req.PeriodStart)
	}
	if req.AccountID != nil && *req.AccountID != 0 {
		stmt = stmt.Where("account_id = ?", *req.AccountID)
	}
	if req.SidemarkFilter != nil {
		stmt = stmt.Where("sidemark_id = ?", *req.SidemarkFilter)
	}

	var events []eventdomain.BillingEvent
	err := stmt.Order("occurred_at ASC, id ASC").Find(&events).Error
	return events, err
}

func (s *Service) assembleDraft(
	ctx context.Context,
	tx *gorm.DB,
	promos promodomain.Service,
	orgID snowflake.ID,
	batchID string,
	group draftGroup,
	req invoicedomain.CreateDraftRequest,
	lineSort invoicedomain.LineSort,
	now time.Time,
) (*invoicedomain.InvoiceDraft, error) {
	draftID := s.genID.Generate()

	claimed := make([]eventdomain.BillingEvent, 0, len(group.events))
	for _, event := range group.events {
		result := tx.WithContext(ctx).Exec(
			`UPDATE billing_events
			 SET status = ?, invoice_id = ?
			 WHERE id = ? AND status = ?`,
			eventdomain.EventStatusBilled,
			draftID,
			event.ID,
			eventdomain.EventStatusUnbilled,
		)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// Another draft claimed the event first; drop it silently.
			continue
		}
		claimed = append(claimed, event)
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	lines := make([]invoicedomain.InvoiceLine, 0, len(claimed))

	for _, event := range claimed {
		eventID := event.ID
		lines = append(lines, invoicedomain.InvoiceLine{
			ID:             s.genID.Generate(),
			OrgID:          orgID,
			InvoiceID:      draftID,
			BillingEventID: &eventID,
			Kind:           invoicedomain.LineKindCharge,
			ChargeType:     event.ChargeType,
			Description:    event.Description,
			Quantity:       event.Quantity,
			UnitRate:       event.UnitRate,
			Amount:         event.TotalAmount,
			HasRateError:   event.HasRateError,
			EventDate:      event.OccurredAt,
			CreatedAt:      now,
		})
		subtotal = subtotal.Add(event.TotalAmount)

		if event.HasRateError || event.TotalAmount.Sign() <= 0 {
			continue
		}
		discountLine, amount, err := s.renderDiscount(ctx, promos, orgID, draftID, event, now)
		if err != nil {
			return nil, err
		}
		if discountLine != nil {
			lines = append(lines, *discountLine)
			discountTotal = discountTotal.Add(amount)
		}
	}

	sortLines(lines, lineSort)

	draft := invoicedomain.InvoiceDraft{
		ID:            draftID,
		OrgID:         orgID,
		AccountID:     group.accountID,
		SidemarkID:    group.sidemarkID,
		BatchID:       batchID,
		InvoiceType:   strings.TrimSpace(req.InvoiceType),
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		Status:        invoicedomain.InvoiceStatusDraft,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		Total:         subtotal.Sub(discountTotal),
		Metadata: datatypes.JSONMap{
			"grouping": string(req.Grouping),
			"events":   len(claimed),
		},
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     lines,
	}

	if err := tx.WithContext(ctx).Create(&draft).Error; err != nil {
		return nil, err
	}
	for i := range lines {
		if err := tx.WithContext(ctx).Create(&lines[i]).Error; err != nil {
			return nil, err
		}
	}
	return &draft, nil
}

// renderDiscount applies the best eligible promo as a separate,
// auditable deduction line. The event's captured rate basis is left
// untouched. promos is bound to the draft transaction.
func (s *Service) renderDiscount(ctx context.Context, promos promodomain.Service, orgID, draftID snowflake.ID, event eventdomain.BillingEvent, now time.Time) (*invoicedomain.InvoiceLine, decimal.Decimal, error) {
	discount, err := promos.BestDiscount(ctx, event.AccountID, event.ChargeType, event.TotalAmount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if discount == nil {
		return nil, decimal.Zero, nil
	}

	if err := promos.RecordUse(ctx, discount.PromoCodeID); err != nil {
		if errors.Is(err, promodomain.ErrUsageLimitReached) {
			// The code ran out between selection and use; skip it.
			return nil, decimal.Zero, nil
		}
		return nil, decimal.Zero, err
	}

	eventID := event.ID
	promoID := discount.PromoCodeID
	return &invoicedomain.InvoiceLine{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		InvoiceID:      draftID,
		BillingEventID: &eventID,
		PromoCodeID:    &promoID,
		Kind:           invoicedomain.LineKindDiscount,
		ChargeType:     event.ChargeType,
		Description:    "Promo " + discount.Code,
		Quantity:       decimal.NewFromInt(1),
		UnitRate:       discount.Amount.Neg(),
		Amount:         discount.Amount.Neg(),
		EventDate:      event.OccurredAt,
		CreatedAt:      now,
	}, discount.Amount, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.InvoiceDraft, error) {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return invoicedomain.InvoiceDraft{}, invoicedomain.ErrInvalidOrganization
	}

	var draft invoicedomain.InvoiceDraft
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.InvoiceDraft{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.InvoiceDraft{}, err
	}

	err = s.db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, id).
		Order("created_at ASC, id ASC").
		Find(&draft.Lines).Error
	if err != nil {
		return invoicedomain.InvoiceDraft{}, err
	}
	return draft, nil
}

func (s *Service) MarkSent(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, "invoice.sent", "sent_at",
		invoicedomain.InvoiceStatusSent,
		invoicedomain.InvoiceStatusDraft,
	)
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, "invoice.paid", "paid_at",
		invoicedomain.InvoiceStatusPaid,
		invoicedomain.InvoiceStatusSent,
	)
}

func (s *Service) VoidDraft(ctx context.Context, id snowflake.ID, reason string) error {
	err := s.transition(ctx, id, "invoice.voided", "voided_at",
		invoicedomain.InvoiceStatusVoid,
		invoicedomain.InvoiceStatusDraft, invoicedomain.InvoiceStatusSent,
	)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason != "" {
		orgID, _ := tenantctx.TenantIDFromContext(ctx)
		targetID := id.String()
		_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "invoice.void_reason", "invoice", &targetID, map[string]any{
			"reason": reason,
		})
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, action, stampColumn string, to invoicedomain.InvoiceStatus, from ...invoicedomain.InvoiceStatus) error {
	orgID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || orgID == 0 {
		return invoicedomain.ErrInvalidOrganization
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&invoicedomain.InvoiceDraft{}).
		Where("org_id = ? AND id = ? AND status IN ?", orgID, id, from).
		Updates(map[string]any{
			"status":     to,
			stampColumn:  now,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&invoicedomain.InvoiceDraft{}).
			Where("org_id = ? AND id = ?", orgID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.ErrInvalidStatusTransition
	}

	targetID := id.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, "invoice", &targetID, map[string]any{
		"status": string(to),
	})
	return nil
}

type draftGroup struct {
	accountID  snowflake.ID
	sidemarkID *snowflake.ID
	events     []eventdomain.BillingEvent
}

// groupSelection splits the selection per the strategy. single and
// by_sidemark refuse multi-account selections outright: proceeding would
// silently mix billing across accounts.
func groupSelection(events []eventdomain.BillingEvent, grouping invoicedomain.GroupingStrategy) ([]draftGroup, error) {
	accounts := make(map[snowflake.ID]struct{})
	for _, event := range events {
		accounts[event.AccountID] = struct{}{}
	}

	switch grouping {
	case invoicedomain.GroupSingle:
		if len(accounts) > 1 {
			return nil, invoicedomain.ErrInvalidGroupingForSelection
		}
		return []draftGroup{{accountID: events[0].AccountID, events: events}}, nil

	case invoicedomain.GroupByAccount:
		return buildGroups(events, func(e eventdomain.BillingEvent) groupKey {
			return groupKey{account: e.AccountID}
		}, false), nil

	case invoicedomain.GroupBySidemark:
		if len(accounts) > 1 {
			return nil, invoicedomain.ErrInvalidGroupingForSelection
		}
		return buildGroups(events, func(e eventdomain.BillingEvent) groupKey {
			return groupKey{account: e.AccountID, sidemark: sidemarkValue(e.SidemarkID)}
		}, true), nil

	case invoicedomain.GroupByAccountSidemark:
		return buildGroups(events, func(e eventdomain.BillingEvent) groupKey {
			return groupKey{account: e.AccountID, sidemark: sidemarkValue(e.SidemarkID)}
		}, true), nil
	}
	return nil, invoicedomain.ErrInvalidGrouping
}

type groupKey struct {
	account  snowflake.ID
	sidemark snowflake.ID // 0 when the event carries no sidemark
}

func sidemarkValue(id *snowflake.ID) snowflake.ID {
	if id == nil {
		return 0
	}
	return *id
}

func buildGroups(events []eventdomain.BillingEvent, keyFn func(eventdomain.BillingEvent) groupKey, carrySidemark bool) []draftGroup {
	byKey := make(map[groupKey]*draftGroup)
	order := make([]groupKey, 0)

	for _, event := range events {
		key := keyFn(event)
		group, ok := byKey[key]
		if !ok {
			group = &draftGroup{accountID: key.account}
			if carrySidemark && key.sidemark != 0 {
				sidemark := key.sidemark
				group.sidemarkID = &sidemark
			}
			byKey[key] = group
			order = append(order, key)
		}
		group.events = append(group.events, event)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].account != order[j].account {
			return order[i].account < order[j].account
		}
		return order[i].sidemark < order[j].sidemark
	})

	groups := make([]draftGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// sortLines orders lines for presentation. Totals never depend on it.
func sortLines(lines []invoicedomain.InvoiceLine, by invoicedomain.LineSort) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		switch by {
		case invoicedomain.SortByService:
			if a.ChargeType != b.ChargeType {
				return a.ChargeType < b.ChargeType
			}
		case invoicedomain.SortByItem:
			if a.Description != b.Description {
				return a.Description < b.Description
			}
		case invoicedomain.SortByAmountDesc:
			if !a.Amount.Equal(b.Amount) {
				return a.Amount.GreaterThan(b.Amount)
			}
		}
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		return a.ID < b.ID
	})
}
