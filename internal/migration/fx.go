package migration

import (
	auditdomain "github.com/warehq/warebill/internal/audit/domain"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	"github.com/warehq/warebill/internal/config"
	invoicedomain "github.com/warehq/warebill/internal/invoice/domain"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
	promodomain "github.com/warehq/warebill/internal/promo/domain"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned SQL targets postgres; other dialects are for local
			// and test runs where schema autogeneration is enough.
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&ratedomain.ServiceRate{},
		&ratedomain.AccountAdjustment{},
		&promodomain.PromoCode{},
		&promodomain.AccountPromoAssignment{},
		&eventdomain.BillingEvent{},
		&invoicedomain.InvoiceDraft{},
		&invoicedomain.InvoiceLine{},
		&labordomain.TaskDurationRecord{},
		&labordomain.EmployeePayProfile{},
		&auditdomain.AuditLog{},
	)
}
