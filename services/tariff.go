package services

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// GSTRate is the fixed 18% tax applied to the base bill and to FPA charges.
var GSTRate = decimal.RequireFromString("0.18")

// TariffConfig holds the per-run rates and toggles.
type TariffConfig struct {
	T1Rate          decimal.Decimal `validate:"gte=0" label:"T1 Tariff Rate"`
	T2Rate          decimal.Decimal `validate:"gte=0" label:"T2 Tariff Rate"`
	FCSurchargeRate decimal.Decimal `validate:"gte=0" label:"FC Surcharge Rate"`
	QtrTariffRate   decimal.Decimal `validate:"gte=0" label:"Qtr Tariff Rate"`
	FPARate         decimal.Decimal `validate:"gte=0" label:"FPA Rate"`

	ApplyGST    bool
	ApplyFPA    bool
	ApplyFPAGST bool
}

// Normalize clears ApplyFPAGST when FPA is off; the toggle has no meaning then.
func (c TariffConfig) Normalize() TariffConfig {
	if !c.ApplyFPA {
		c.ApplyFPAGST = false
	}
	return c
}

// Validate checks that every rate is non-negative and that both tier rates
// are set.
func (c TariffConfig) Validate() error {
	if err := validate().Struct(c); err != nil {
		return describeValidation(err)
	}
	if !c.T1Rate.IsPositive() || !c.T2Rate.IsPositive() {
		return ErrTariffRatesRequired
	}
	return nil
}

var (
	validateOnce sync.Once
	validateInst *validator.Validate
)

// validate returns the shared validator. Decimals are validated as floats.
func validate() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		validateInst = v
	})
	return validateInst
}

// describeValidation turns validator errors into one readable message.
func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must not be negative", fe.Field()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}
