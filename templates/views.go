// Package templates renders the HTML pages and HTMX fragments of the app.
//
// Components are written in the *.templ files; the *_templ.go files are
// generated from them with `templ generate`.
package templates

import "github.com/a-h/templ"

// Nav entries of the top bar.
const (
	NavBilling = "billing"
	NavBOQ     = "boq"
)

// BillingFormData holds the current values of the billing form.
type BillingFormData struct {
	T1Rate          string
	T2Rate          string
	FCSurchargeRate string
	QtrTariffRate   string
	FPARate         string

	ApplyGST    bool
	ApplyFPA    bool
	ApplyFPAGST bool

	BillMonth string
	BillYear  int
	FPAMonth  string
	FPAYear   int

	AllowMissingPrevBill bool
	AllowMissingPrevFPA  bool
	AbsentPolicy         string

	MonthOptions  []string
	YearOptions   []int
	PolicyOptions []PolicyOption

	// Result is shown below the form after a non-HTMX submit.
	Result templ.Component
}

// PolicyOption is one choice of the absent-reading selector.
type PolicyOption struct {
	Value string
	Label string
}

// BillRowView is one department row of the bill table.
type BillRowView struct {
	Department string
	Cells      []string
}

// SummaryLine is one labelled total below the bill table.
type SummaryLine struct {
	Label string
	Value string
}

// BillResultData is the rendered outcome of a calculation.
type BillResultData struct {
	BillingPeriod string
	FPAPeriod     string
	Headers       []string
	Rows          []BillRowView
	Totals        []string
	Summary       []SummaryLine
}

// BOQRowView is one formatted line of the current BOQ.
type BOQRowView struct {
	Position  int
	ItemName  string
	Quantity  string
	Unit      string
	UnitPrice string
	Total     string
}

// BOQPageData is everything the BOQ page shows.
type BOQPageData struct {
	Rows         []BOQRowView
	GrandTotal   string
	CatalogCount int
}
