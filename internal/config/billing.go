package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingDefaults are used whenever no billing settings row exists yet.
type BillingDefaults struct {
	TaxRate            string         `mapstructure:"taxRate"`
	InvoicePrefix      string         `mapstructure:"invoicePrefix"`
	FirstInvoiceNumber int64          `mapstructure:"firstInvoiceNumber"`
	PaymentTerms       string         `mapstructure:"paymentTerms"`
	DueDays            int            `mapstructure:"dueDays"`
	Company            CompanyProfile `mapstructure:"company"`
}

type CompanyProfile struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	City    string `mapstructure:"city"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

func DefaultBillingDefaults() BillingDefaults {
	return BillingDefaults{
		TaxRate:            "0.1000",
		InvoicePrefix:      "INV",
		FirstInvoiceNumber: 1001,
		PaymentTerms:       "Net 30",
		DueDays:            30,
		Company: CompanyProfile{
			Name: "Garage",
		},
	}
}

// Rate parses TaxRate. Validation guarantees it parses.
func (d BillingDefaults) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(d.TaxRate))
	if err != nil {
		return decimal.RequireFromString(DefaultBillingDefaults().TaxRate)
	}
	return rate
}

type BillingDefaultsHolder struct {
	current atomic.Value // holds BillingDefaults
}

// NewStaticBillingDefaultsHolder returns a holder that never reloads.
func NewStaticBillingDefaultsHolder(defaults BillingDefaults) *BillingDefaultsHolder {
	holder := &BillingDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func NewBillingDefaultsHolder(cfg Config, log *zap.Logger) (*BillingDefaultsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("billing.config")

	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	if cfg.BillingConfigPath != "" {
		v.AddConfigPath(cfg.BillingConfigPath)
	}
	v.AddConfigPath("/etc/garagedesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GARAGEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingDefaults()
	v.SetDefault("billing.taxRate", defaults.TaxRate)
	v.SetDefault("billing.invoicePrefix", defaults.InvoicePrefix)
	v.SetDefault("billing.firstInvoiceNumber", defaults.FirstInvoiceNumber)
	v.SetDefault("billing.paymentTerms", defaults.PaymentTerms)
	v.SetDefault("billing.dueDays", defaults.DueDays)
	v.SetDefault("billing.company.name", defaults.Company.Name)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	loaded, err := unmarshalBillingDefaults(v)
	if err != nil {
		return nil, err
	}
	if err := validateBillingDefaults(loaded); err != nil {
		return nil, err
	}

	holder := NewStaticBillingDefaultsHolder(loaded)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalBillingDefaults(v)
		if err != nil {
			log.Warn("billing defaults reload failed", zap.Error(err))
			return
		}
		if err := validateBillingDefaults(updated); err != nil {
			log.Warn("invalid billing defaults ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("billing defaults reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func unmarshalBillingDefaults(v *viper.Viper) (BillingDefaults, error) {
	var file struct {
		Billing BillingDefaults `mapstructure:"billing"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return BillingDefaults{}, err
	}
	return file.Billing, nil
}

func (h *BillingDefaultsHolder) Get() BillingDefaults {
	return h.current.Load().(BillingDefaults)
}

func validateBillingDefaults(cfg BillingDefaults) error {
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRate))
	if err != nil {
		return errors.New("billing.taxRate must be a decimal")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("billing.taxRate must be between 0 and 1")
	}
	if strings.TrimSpace(cfg.InvoicePrefix) == "" {
		return errors.New("billing.invoicePrefix cannot be empty")
	}
	if cfg.FirstInvoiceNumber < 1 {
		return errors.New("billing.firstInvoiceNumber must be positive")
	}
	if cfg.DueDays < 1 {
		return errors.New("billing.dueDays must be positive")
	}
	return nil
}
