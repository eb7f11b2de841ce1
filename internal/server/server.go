package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warehq/warebill/internal/audit"
	auditdomain "github.com/warehq/warebill/internal/audit/domain"
	"github.com/warehq/warebill/internal/billingevent"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	"github.com/warehq/warebill/internal/config"
	"github.com/warehq/warebill/internal/invoice"
	invoicedomain "github.com/warehq/warebill/internal/invoice/domain"
	"github.com/warehq/warebill/internal/labor"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
	"github.com/warehq/warebill/internal/metrics"
	"github.com/warehq/warebill/internal/promo"
	promodomain "github.com/warehq/warebill/internal/promo/domain"
	"github.com/warehq/warebill/internal/rate"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	metrics.Module,
	audit.Module,
	rate.Module,
	promo.Module,
	billingevent.Module,
	labor.Module,
	invoice.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(recorder *metrics.Recorder) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(recorder *metrics.Recorder) *gin.Engine {
	return NewEngine(recorder)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	genID  *snowflake.Node

	rateSvc    ratedomain.Service
	promoSvc   promodomain.Service
	eventSvc   eventdomain.Service
	laborSvc   labordomain.Service
	invoiceSvc invoicedomain.Service
	auditSvc   auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node

	RateSvc    ratedomain.Service
	PromoSvc   promodomain.Service
	EventSvc   eventdomain.Service
	LaborSvc   labordomain.Service
	InvoiceSvc invoicedomain.Service
	AuditSvc   auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		genID:      p.GenID,
		rateSvc:    p.RateSvc,
		promoSvc:   p.PromoSvc,
		eventSvc:   p.EventSvc,
		laborSvc:   p.LaborSvc,
		invoiceSvc: p.InvoiceSvc,
		auditSvc:   p.AuditSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", OrgContext())

	v1.GET("/rates/resolve", s.ResolveRate)
	v1.POST("/accounts/:account_id/adjustments", s.CreateAdjustments)
	v1.GET("/accounts/:account_id/adjustments", s.ListAdjustments)
	v1.PATCH("/adjustments/:id", s.UpdateAdjustment)
	v1.DELETE("/adjustments/:id", s.DeleteAdjustment)

	v1.GET("/accounts/:account_id/discount-preview", s.PreviewDiscount)

	v1.POST("/charges", s.CreateCharge)
	v1.POST("/charges/batch", s.CreateCharges)

	v1.POST("/invoices/drafts", s.CreateInvoiceDrafts)
	v1.GET("/invoices/:id", s.GetInvoice)
	v1.POST("/invoices/:id/send", s.MarkInvoiceSent)
	v1.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	v1.POST("/invoices/:id/void", s.VoidInvoice)

	v1.GET("/labor/cost-report", s.LaborCostReport)
}
