package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	billingoverviewdomain "github.com/smallbiznis/garagedesk/internal/billingoverview/domain"
	billingsettingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"github.com/smallbiznis/garagedesk/internal/config"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/garagedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/garagedesk/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/ratelimit"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	statementdomain "github.com/smallbiznis/garagedesk/internal/statement/domain"
	techniciandomain "github.com/smallbiznis/garagedesk/internal/technician/domain"
	vehicledomain "github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine        *gin.Engine
	cfg           config.Config
	auditSvc      auditdomain.Service
	customerSvc   customerdomain.Service
	vehicleSvc    vehicledomain.Service
	technicianSvc techniciandomain.Service
	serviceSvc    servicedomain.Service
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	settingsSvc   billingsettingdomain.Service
	statementSvc  statementdomain.Service
	overviewSvc   billingoverviewdomain.Service
	writeLimiter  *ratelimit.WriteLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	AuditSvc      auditdomain.Service
	CustomerSvc   customerdomain.Service
	VehicleSvc    vehicledomain.Service
	TechnicianSvc techniciandomain.Service
	ServiceSvc    servicedomain.Service
	InvoiceSvc    invoicedomain.Service
	PaymentSvc    paymentdomain.Service
	SettingsSvc   billingsettingdomain.Service
	StatementSvc  statementdomain.Service
	OverviewSvc   billingoverviewdomain.Service
	WriteLimiter  *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		auditSvc:      p.AuditSvc,
		customerSvc:   p.CustomerSvc,
		vehicleSvc:    p.VehicleSvc,
		technicianSvc: p.TechnicianSvc,
		serviceSvc:    p.ServiceSvc,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		settingsSvc:   p.SettingsSvc,
		statementSvc:  p.StatementSvc,
		overviewSvc:   p.OverviewSvc,
		writeLimiter:  p.WriteLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorContext(), s.WriteRateLimit())

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)
	api.GET("/customers/:id/statement", s.GetCustomerStatement)

	// -------- Vehicles --------
	api.GET("/vehicles", s.ListVehicles)
	api.POST("/vehicles", s.CreateVehicle)
	api.GET("/vehicles/:id", s.GetVehicleByID)
	api.PATCH("/vehicles/:id", s.UpdateVehicle)
	api.DELETE("/vehicles/:id", s.DeleteVehicle)

	// -------- Technicians --------
	api.GET("/technicians", s.ListTechnicians)
	api.POST("/technicians", s.CreateTechnician)
	api.GET("/technicians/:id", s.GetTechnicianByID)
	api.PATCH("/technicians/:id", s.UpdateTechnician)
	api.DELETE("/technicians/:id", s.DeleteTechnician)

	// -------- Services --------
	api.GET("/services", s.ListServices)
	api.POST("/services", s.CreateService)
	api.GET("/services/:id", s.GetServiceByID)
	api.PATCH("/services/:id", s.UpdateService)
	api.PATCH("/services/:id/status", s.UpdateServiceStatus)
	api.DELETE("/services/:id", s.DeleteService)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices/generate", s.GenerateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.GET("/invoices/:id/payments", s.ListInvoicePayments)

	// -------- Payments --------
	api.GET("/payments", s.ListPayments)
	api.POST("/payments", s.RecordPayment)
	api.GET("/payments/:id", s.GetPaymentByID)
	api.PATCH("/payments/:id", s.UpdatePayment)
	api.DELETE("/payments/:id", s.DeletePayment)
	api.GET("/payments/:id/receipt", s.RenderPaymentReceipt)

	// -------- Billing settings --------
	api.GET("/billing-settings/current", s.GetBillingSettings)
	api.PATCH("/billing-settings/current", s.UpdateBillingSettings)

	// -------- Reports --------
	api.GET("/reports/revenue", s.GetRevenueReport)

	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
