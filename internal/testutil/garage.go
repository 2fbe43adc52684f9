package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	auditrepo "github.com/smallbiznis/garagedesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/garagedesk/internal/audit/service"
	billingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	billingrepo "github.com/smallbiznis/garagedesk/internal/billingsetting/repository"
	billingservice "github.com/smallbiznis/garagedesk/internal/billingsetting/service"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"github.com/smallbiznis/garagedesk/internal/config"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	customerrepo "github.com/smallbiznis/garagedesk/internal/customer/repository"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/garagedesk/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/garagedesk/internal/invoice/service"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/garagedesk/internal/payment/repository"
	paymentservice "github.com/smallbiznis/garagedesk/internal/payment/service"
	"github.com/smallbiznis/garagedesk/internal/providers/pdf"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	servicerepo "github.com/smallbiznis/garagedesk/internal/servicerecord/repository"
	serviceservice "github.com/smallbiznis/garagedesk/internal/servicerecord/service"
	vehicledomain "github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	vehiclerepo "github.com/smallbiznis/garagedesk/internal/vehicle/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Garage wires the billing services over one test database.
type Garage struct {
	DB    *gorm.DB
	Clock *clock.FakeClock
	GenID *snowflake.Node

	CustomerRepo customerdomain.Repository
	VehicleRepo  vehicledomain.Repository
	ServiceRepo  servicedomain.Repository
	InvoiceRepo  invoicedomain.Repository
	PaymentRepo  paymentdomain.Repository
	SettingsRepo billingdomain.Repository

	Audit      auditdomain.Service
	Settings   billingdomain.Service
	Provider   billingdomain.Provider
	Reconciler paymentdomain.Reconciler
	Invoices   *invoiceservice.Service
	Payments   paymentdomain.Service
	Services   servicedomain.Service

	seq atomic.Int64
}

var GarageEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func NewGarage(t testing.TB) *Garage {
	t.Helper()

	g := &Garage{
		DB:           NewDB(t),
		Clock:        clock.NewFakeClock(GarageEpoch),
		GenID:        NewNode(t),
		CustomerRepo: customerrepo.Provide(),
		VehicleRepo:  vehiclerepo.Provide(),
		ServiceRepo:  servicerepo.Provide(),
		InvoiceRepo:  invoicerepo.Provide(),
		PaymentRepo:  paymentrepo.Provide(),
		SettingsRepo: billingrepo.Provide(),
	}
	log := zap.NewNop()

	g.Audit = auditservice.NewService(auditservice.Params{
		DB: g.DB, Log: log, GenID: g.GenID, Clock: g.Clock, Repo: auditrepo.Provide(),
	})
	g.Provider = billingservice.NewProvider(billingservice.ProviderParams{
		Log:      log,
		Defaults: config.NewStaticBillingDefaultsHolder(config.DefaultBillingDefaults()),
		Repo:     g.SettingsRepo,
	})
	g.Settings = billingservice.New(billingservice.Params{
		DB: g.DB, Log: log, Clock: g.Clock, Repo: g.SettingsRepo, Provider: g.Provider, AuditSvc: g.Audit,
	})
	g.Reconciler = paymentservice.NewReconciler(paymentservice.ReconcilerParams{
		Log:         log,
		Clock:       g.Clock,
		Repo:        g.PaymentRepo,
		InvoiceRepo: g.InvoiceRepo,
		ServiceRepo: g.ServiceRepo,
	})
	pdfProvider := pdf.New()
	g.Invoices = invoiceservice.New(invoiceservice.Params{
		DB:           g.DB,
		Log:          log,
		GenID:        g.GenID,
		Clock:        g.Clock,
		Repo:         g.InvoiceRepo,
		ServiceRepo:  g.ServiceRepo,
		PaymentRepo:  g.PaymentRepo,
		Reconciler:   g.Reconciler,
		SettingsRepo: g.SettingsRepo,
		Settings:     g.Provider,
		CustomerRepo: g.CustomerRepo,
		VehicleRepo:  g.VehicleRepo,
		AuditSvc:     g.Audit,
		PDF:          pdfProvider,
	})
	g.Payments = paymentservice.NewService(paymentservice.Params{
		DB:           g.DB,
		Log:          log,
		GenID:        g.GenID,
		Clock:        g.Clock,
		Repo:         g.PaymentRepo,
		InvoiceRepo:  g.InvoiceRepo,
		CustomerRepo: g.CustomerRepo,
		Reconciler:   g.Reconciler,
		Settings:     g.Provider,
		AuditSvc:     g.Audit,
		PDF:          pdfProvider,
	})
	g.Services = serviceservice.New(serviceservice.Params{
		DB:        g.DB,
		Log:       log,
		GenID:     g.GenID,
		Clock:     g.Clock,
		Repo:      g.ServiceRepo,
		Generator: g.Invoices,
	})
	return g
}

// SeedVehicle inserts a customer with one vehicle and returns the vehicle.
func (g *Garage) SeedVehicle(t testing.TB) vehicledomain.Vehicle {
	t.Helper()
	ctx := context.Background()
	n := g.seq.Add(1)
	now := g.Clock.Now()

	customer := customerdomain.Customer{
		ID:        g.GenID.Generate(),
		Name:      fmt.Sprintf("Customer %d", n),
		Email:     fmt.Sprintf("customer%d@example.com", n),
		Address:   "12 Station Road",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.CustomerRepo.Insert(ctx, g.DB, &customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	vehicle := vehicledomain.Vehicle{
		ID:          g.GenID.Generate(),
		CustomerID:  customer.ID,
		Brand:       "Toyota",
		Model:       "Corolla",
		Year:        2019,
		PlateNumber: fmt.Sprintf("CAB-%04d", n),
		FuelType:    vehicledomain.DefaultFuelType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.VehicleRepo.Insert(ctx, g.DB, &vehicle); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return vehicle
}

// SeedService inserts a pending service record directly, bypassing the
// mutation handler and its invoice side effects.
func (g *Garage) SeedService(t testing.TB, vehicleID snowflake.ID, cost string, included bool, advance string) servicedomain.ServiceRecord {
	t.Helper()
	now := g.Clock.Now()
	record := servicedomain.ServiceRecord{
		ID:             g.GenID.Generate(),
		VehicleID:      vehicleID,
		ServiceType:    "Oil change",
		Description:    "Engine oil and filter",
		ServiceDate:    datatypes.Date(now),
		Cost:           decimal.RequireFromString(cost),
		TaxIncluded:    included,
		AdvancePayment: decimal.RequireFromString(advance),
		Status:         servicedomain.StatusPending,
		EstimatedHours: decimal.NewFromInt(1),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	record.RemainingBalance = record.Cost.Sub(record.AdvancePayment)
	if err := g.ServiceRepo.Insert(context.Background(), g.DB, &record); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return record
}

func (g *Garage) Service(t testing.TB, id snowflake.ID) servicedomain.ServiceRecord {
	t.Helper()
	rec, err := g.ServiceRepo.FindByID(context.Background(), g.DB, id)
	if err != nil || rec == nil {
		t.Fatalf("load service %s: %v", id, err)
	}
	return *rec
}

func (g *Garage) Invoice(t testing.TB, id snowflake.ID) invoicedomain.Invoice {
	t.Helper()
	inv, err := g.InvoiceRepo.FindByID(context.Background(), g.DB, id)
	if err != nil || inv == nil {
		t.Fatalf("load invoice %s: %v", id, err)
	}
	return *inv
}

func Dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// AssertDec compares decimals by value, so 93.5 equals 93.50.
func AssertDec(t testing.TB, want string, got decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	return assert.Truef(t, Dec(want).Equal(got), "want %s, got %s %v", want, got.String(), fmt.Sprint(msgAndArgs...))
}
