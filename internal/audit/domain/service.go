package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	AuditLog(ctx context.Context, orgID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAction       = errors.New("invalid_action")
)
