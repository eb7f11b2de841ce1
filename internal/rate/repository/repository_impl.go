package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"gorm.io/gorm"
)

// Repository holds the rate lookups that need explicit NULL handling on
// class_code; the generic store treats nil pointer fields as "any".
type Repository interface {
	FindServiceRate(ctx context.Context, orgID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.ServiceRate, error)
	FindAdjustment(ctx context.Context, orgID, accountID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.AccountAdjustment, error)
	FindAdjustmentByID(ctx context.Context, orgID, id snowflake.ID) (*ratedomain.AccountAdjustment, error)
	ListAdjustments(ctx context.Context, orgID, accountID snowflake.ID) ([]ratedomain.AccountAdjustment, error)
}

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) FindServiceRate(ctx context.Context, orgID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.ServiceRate, error) {
	stmt := r.db.WithContext(ctx).
		Where("org_id = ? AND service_code = ?", orgID, serviceCode)
	stmt = whereClassCode(stmt, classCode)

	var rate ratedomain.ServiceRate
	if err := stmt.First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repo) FindAdjustment(ctx context.Context, orgID, accountID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.AccountAdjustment, error) {
	stmt := r.db.WithContext(ctx).
		Where("org_id = ? AND account_id = ? AND service_code = ?", orgID, accountID, serviceCode)
	stmt = whereClassCode(stmt, classCode)

	var adjustment ratedomain.AccountAdjustment
	if err := stmt.First(&adjustment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &adjustment, nil
}

func (r *repo) FindAdjustmentByID(ctx context.Context, orgID, id snowflake.ID) (*ratedomain.AccountAdjustment, error) {
	var adjustment ratedomain.AccountAdjustment
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&adjustment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &adjustment, nil
}

func (r *repo) ListAdjustments(ctx context.Context, orgID, accountID snowflake.ID) ([]ratedomain.AccountAdjustment, error) {
	var adjustments []ratedomain.AccountAdjustment
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND account_id = ?", orgID, accountID).
		Order("service_code ASC").
		Find(&adjustments).Error
	return adjustments, err
}

func whereClassCode(stmt *gorm.DB, classCode *string) *gorm.DB {
	if classCode == nil {
		return stmt.Where("class_code IS NULL")
	}
	return stmt.Where("class_code = ?", *classCode)
}
