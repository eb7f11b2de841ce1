package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/warehq/warebill/internal/audit/domain"
	"github.com/warehq/warebill/internal/tenantctx"
	"github.com/warehq/warebill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[auditdomain.AuditLog]
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[auditdomain.AuditLog](p.DB),
	}
}

func (s *Service) AuditLog(ctx context.Context, orgID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	resolvedOrgID := snowflake.ID(0)
	if orgID != nil {
		resolvedOrgID = *orgID
	}
	if resolvedOrgID == 0 {
		if fromCtx, ok := tenantctx.TenantIDFromContext(ctx); ok {
			resolvedOrgID = fromCtx
		}
	}
	if resolvedOrgID == 0 {
		return auditdomain.ErrInvalidOrganization
	}

	actorType = strings.TrimSpace(actorType)
	if actorType == "" {
		actorType = "system"
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := datatypes.JSONMap{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		OrgID:      resolvedOrgID,
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   payload,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		// Audit failures are logged, never propagated into billing flows.
		s.log.Warn("failed to write audit log",
			zap.Error(err),
			zap.String("action", action),
		)
	}
	return nil
}
