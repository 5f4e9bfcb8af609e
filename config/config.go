// Package config loads runtime settings from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"utilitybilling/services"
)

// Config holds the form defaults and upload settings of the application.
type Config struct {
	T1Rate          decimal.Decimal `envconfig:"BILLING_T1_RATE" default:"0"`
	T2Rate          decimal.Decimal `envconfig:"BILLING_T2_RATE" default:"0"`
	FCSurchargeRate decimal.Decimal `envconfig:"BILLING_FC_SURCHARGE_RATE" default:"0"`
	QtrTariffRate   decimal.Decimal `envconfig:"BILLING_QTR_TARIFF_RATE" default:"0"`
	FPARate         decimal.Decimal `envconfig:"BILLING_FPA_RATE" default:"0"`

	ApplyGST    bool `envconfig:"BILLING_APPLY_GST" default:"true"`
	ApplyFPA    bool `envconfig:"BILLING_APPLY_FPA" default:"false"`
	ApplyFPAGST bool `envconfig:"BILLING_APPLY_FPA_GST" default:"false"`

	BillMonth    string `envconfig:"BILLING_MONTH" default:"Jul"`
	BillYear     int    `envconfig:"BILLING_YEAR" default:"2024"`
	AbsentPolicy string `envconfig:"BILLING_ABSENT_POLICY" default:"zero"`

	CatalogPath string `envconfig:"BOQ_CATALOG_PATH"`
	SeedCatalog bool   `envconfig:"BOQ_SEED_CATALOG" default:"true"`

	UploadMaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// Load reads a .env file when one exists, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if !services.IsValidMonth(cfg.BillMonth) {
		return nil, fmt.Errorf("BILLING_MONTH %q is not a month abbreviation", cfg.BillMonth)
	}
	if p := services.AbsentReadingPolicy(cfg.AbsentPolicy); p != services.AbsentAsZero && p != services.AbsentFails {
		return nil, fmt.Errorf("BILLING_ABSENT_POLICY must be %q or %q", services.AbsentAsZero, services.AbsentFails)
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return &cfg, nil
}

// Tariff returns the configured rates and toggles as the billing form default.
func (c *Config) Tariff() services.TariffConfig {
	return services.TariffConfig{
		T1Rate:          c.T1Rate,
		T2Rate:          c.T2Rate,
		FCSurchargeRate: c.FCSurchargeRate,
		QtrTariffRate:   c.QtrTariffRate,
		FPARate:         c.FPARate,
		ApplyGST:        c.ApplyGST,
		ApplyFPA:        c.ApplyFPA,
		ApplyFPAGST:     c.ApplyFPAGST,
	}.Normalize()
}

// Period returns the default billing period label, e.g. "Jul-24".
func (c *Config) Period() string {
	return services.FormatPeriod(c.BillMonth, c.BillYear)
}
