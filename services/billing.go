package services

import (
	"github.com/shopspring/decimal"
)

// AbsentReadingPolicy decides what a blank reading in an existing column means.
type AbsentReadingPolicy string

const (
	// AbsentAsZero treats a delta with a blank side as zero consumption.
	AbsentAsZero AbsentReadingPolicy = "zero"
	// AbsentFails aborts the run when a needed reading is blank.
	AbsentFails AbsentReadingPolicy = "fail"
)

// ParseAbsentReadingPolicy maps a form value to a policy, defaulting to AbsentAsZero.
func ParseAbsentReadingPolicy(s string) AbsentReadingPolicy {
	if AbsentReadingPolicy(s) == AbsentFails {
		return AbsentFails
	}
	return AbsentAsZero
}

// Purposes a consumption basis is resolved for.
const (
	PurposeBilling = "billing"
	PurposeFPA     = "FPA"
)

// RunOptions selects the periods and missing-data policies of one calculation.
type RunOptions struct {
	BillingPeriod        string
	FPAPeriod            string
	AllowMissingPrevBill bool
	AllowMissingPrevFPA  bool
	AbsentPolicy         AbsentReadingPolicy
}

// BillLineItem is the itemized bill for one department. Values are unrounded;
// use Rounded for display.
type BillLineItem struct {
	Department string

	T1Units    decimal.Decimal
	T2Units    decimal.Decimal
	TotalUnits decimal.Decimal

	T1Bill      decimal.Decimal
	T2Bill      decimal.Decimal
	FCSurcharge decimal.Decimal
	QtrTariff   decimal.Decimal
	BaseBill    decimal.Decimal
	GST         decimal.Decimal
	PreTotal    decimal.Decimal

	FPAUnits   decimal.Decimal
	FPACharges decimal.Decimal
	FPAGST     decimal.Decimal
	TotalFPA   decimal.Decimal

	TotalBill decimal.Decimal
}

// Rounded returns a copy with every amount rounded to 2 decimal places.
func (b BillLineItem) Rounded() BillLineItem {
	r := func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
	return BillLineItem{
		Department:  b.Department,
		T1Units:     r(b.T1Units),
		T2Units:     r(b.T2Units),
		TotalUnits:  r(b.TotalUnits),
		T1Bill:      r(b.T1Bill),
		T2Bill:      r(b.T2Bill),
		FCSurcharge: r(b.FCSurcharge),
		QtrTariff:   r(b.QtrTariff),
		BaseBill:    r(b.BaseBill),
		GST:         r(b.GST),
		PreTotal:    r(b.PreTotal),
		FPAUnits:    r(b.FPAUnits),
		FPACharges:  r(b.FPACharges),
		FPAGST:      r(b.FPAGST),
		TotalFPA:    r(b.TotalFPA),
		TotalBill:   r(b.TotalBill),
	}
}

// BillSummary aggregates a run across all departments.
type BillSummary struct {
	TotalUnits  decimal.Decimal
	FCSurcharge decimal.Decimal
	QtrTariff   decimal.Decimal
	BaseBill    decimal.Decimal
	GST         decimal.Decimal
	FPACharges  decimal.Decimal
	FPAGST      decimal.Decimal
	TotalFPA    decimal.Decimal
	TotalBill   decimal.Decimal
}

func (s *BillSummary) add(b BillLineItem) {
	s.TotalUnits = s.TotalUnits.Add(b.TotalUnits)
	s.FCSurcharge = s.FCSurcharge.Add(b.FCSurcharge)
	s.QtrTariff = s.QtrTariff.Add(b.QtrTariff)
	s.BaseBill = s.BaseBill.Add(b.BaseBill)
	s.GST = s.GST.Add(b.GST)
	s.FPACharges = s.FPACharges.Add(b.FPACharges)
	s.FPAGST = s.FPAGST.Add(b.FPAGST)
	s.TotalFPA = s.TotalFPA.Add(b.TotalFPA)
	s.TotalBill = s.TotalBill.Add(b.TotalBill)
}

// BillRun is the result of one calculation over a reading table.
type BillRun struct {
	Tariff  TariffConfig
	Billing ConsumptionBasis
	FPA     ConsumptionBasis
	Items   []BillLineItem
	Summary BillSummary
}

// TierUnits computes one tier's consumption.
//
// With a previous column the result is current - previous (negative deltas
// pass through). Without one, allowMissingPrevious makes the current
// cumulative reading the consumption; otherwise ErrMissingPeriodData is
// returned. Absent values are coerced to zero only after that choice, so a
// delta with either side absent is zero.
func TierUnits(current, previous decimal.NullDecimal, previousColumnExists, allowMissingPrevious bool) (decimal.Decimal, error) {
	var units decimal.NullDecimal
	switch {
	case previousColumnExists:
		units = decimal.NullDecimal{
			Decimal: current.Decimal.Sub(previous.Decimal),
			Valid:   current.Valid && previous.Valid,
		}
	case allowMissingPrevious:
		units = current
	default:
		return decimal.Zero, ErrMissingPeriodData
	}
	if !units.Valid {
		return decimal.Zero, nil
	}
	return units.Decimal, nil
}

// ConsumptionBasis is a period resolved against a reading table: the period
// itself, its predecessor and which tiers have a previous column.
type ConsumptionBasis struct {
	Purpose              string
	Period               string
	Previous             string
	AllowMissingPrevious bool
	AbsentPolicy         AbsentReadingPolicy
	previousColumn       map[Tier]bool
}

// HasPrevious reports whether tier has a previous reading column.
func (b ConsumptionBasis) HasPrevious(tier Tier) bool {
	return b.previousColumn[tier]
}

// ResolveBasis checks, once per run, that period and its predecessor can be
// used. It fails with *MissingPeriodDataError when the period has no columns,
// or when a previous column is missing and allowMissingPrevious is false.
func ResolveBasis(table *ReadingTable, purpose, period string, allowMissingPrevious bool, policy AbsentReadingPolicy) (ConsumptionBasis, error) {
	b := ConsumptionBasis{
		Purpose:              purpose,
		Period:               period,
		AllowMissingPrevious: allowMissingPrevious,
		AbsentPolicy:         policy,
		previousColumn:       make(map[Tier]bool, len(Tiers)),
	}
	for _, tier := range Tiers {
		if !table.HasColumn(ReadingKey{Period: period, Tier: tier}) {
			return b, &MissingPeriodDataError{Purpose: purpose, Period: period, Tier: tier, Current: true}
		}
	}

	prev, ok := table.Periods.Previous(period)
	if ok {
		b.Previous = prev
	}
	for _, tier := range Tiers {
		has := ok && table.HasColumn(ReadingKey{Period: prev, Tier: tier})
		if !has && !allowMissingPrevious {
			return b, &MissingPeriodDataError{Purpose: purpose, Period: prev, Tier: tier}
		}
		b.previousColumn[tier] = has
	}
	return b, nil
}

// Units returns the T1 and T2 consumption of row under this basis.
func (b ConsumptionBasis) Units(row ReadingRow) (t1, t2 decimal.Decimal, err error) {
	units := make(map[Tier]decimal.Decimal, len(Tiers))
	for _, tier := range Tiers {
		curKey := ReadingKey{Period: b.Period, Tier: tier}
		prevKey := ReadingKey{Period: b.Previous, Tier: tier}
		cur := row.Reading(curKey)
		prev := row.Reading(prevKey)
		hasPrev := b.HasPrevious(tier)

		if b.AbsentPolicy == AbsentFails {
			if !cur.Valid {
				return t1, t2, &AbsentReadingError{Department: row.Department, Key: curKey}
			}
			if hasPrev && !prev.Valid {
				return t1, t2, &AbsentReadingError{Department: row.Department, Key: prevKey}
			}
		}

		u, err := TierUnits(cur, prev, hasPrev, b.AllowMissingPrevious)
		if err != nil {
			return t1, t2, &MissingPeriodDataError{Purpose: b.Purpose, Period: b.Previous, Tier: tier}
		}
		units[tier] = u
	}
	return units[TierT1], units[TierT2], nil
}

// ComputeCharges applies cfg to already computed consumption. It is the
// arithmetic core of ComputeBill.
func ComputeCharges(t1Units, t2Units, fpaUnits decimal.Decimal, cfg TariffConfig) BillLineItem {
	cfg = cfg.Normalize()
	b := BillLineItem{
		T1Units:  t1Units,
		T2Units:  t2Units,
		FPAUnits: fpaUnits,
	}
	b.TotalUnits = t1Units.Add(t2Units)

	b.T1Bill = t1Units.Mul(cfg.T1Rate)
	b.T2Bill = t2Units.Mul(cfg.T2Rate)
	b.FCSurcharge = b.TotalUnits.Mul(cfg.FCSurchargeRate)
	b.QtrTariff = b.TotalUnits.Mul(cfg.QtrTariffRate)
	b.BaseBill = b.T1Bill.Add(b.T2Bill).Add(b.FCSurcharge).Add(b.QtrTariff)

	if cfg.ApplyGST {
		b.GST = b.BaseBill.Mul(GSTRate)
	}
	b.PreTotal = b.BaseBill.Add(b.GST)

	if cfg.ApplyFPA {
		b.FPACharges = fpaUnits.Mul(cfg.FPARate)
		if cfg.ApplyFPAGST {
			b.FPAGST = b.FPACharges.Mul(GSTRate)
		}
	}
	b.TotalFPA = b.FPACharges.Add(b.FPAGST)
	b.TotalBill = b.PreTotal.Add(b.TotalFPA)
	return b
}

// ComputeBill computes one department's itemized bill. The billing and FPA
// bases are resolved independently and may refer to different periods.
func ComputeBill(row ReadingRow, cfg TariffConfig, billing, fpa ConsumptionBasis) (BillLineItem, error) {
	t1, t2, err := billing.Units(row)
	if err != nil {
		return BillLineItem{}, err
	}
	fpaT1, fpaT2, err := fpa.Units(row)
	if err != nil {
		return BillLineItem{}, err
	}
	b := ComputeCharges(t1, t2, fpaT1.Add(fpaT2), cfg)
	b.Department = row.Department
	return b, nil
}

// ComputeBills runs ComputeBill over every row. The first error aborts the
// whole run and no partial result is returned.
func ComputeBills(table *ReadingTable, cfg TariffConfig, opts RunOptions) (*BillRun, error) {
	policy := opts.AbsentPolicy
	if policy == "" {
		policy = AbsentAsZero
	}
	billing, err := ResolveBasis(table, PurposeBilling, opts.BillingPeriod, opts.AllowMissingPrevBill, policy)
	if err != nil {
		return nil, err
	}
	fpa, err := ResolveBasis(table, PurposeFPA, opts.FPAPeriod, opts.AllowMissingPrevFPA, policy)
	if err != nil {
		return nil, err
	}

	run := &BillRun{
		Tariff:  cfg.Normalize(),
		Billing: billing,
		FPA:     fpa,
		Items:   make([]BillLineItem, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		item, err := ComputeBill(row, run.Tariff, billing, fpa)
		if err != nil {
			return nil, err
		}
		run.Items = append(run.Items, item)
		run.Summary.add(item)
	}
	return run, nil
}
