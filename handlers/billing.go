package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"utilitybilling/config"
	"utilitybilling/services"
	"utilitybilling/templates"
)

// billingRequest is a parsed billing form with its uploaded readings.
type billingRequest struct {
	form   templates.BillingFormData
	table  *services.ReadingTable
	tariff services.TariffConfig
	opts   services.RunOptions
}

// defaultBillingForm fills the form from configuration.
func defaultBillingForm(cfg *config.Config) templates.BillingFormData {
	tariff := cfg.Tariff()
	month, year := cfg.BillMonth, cfg.BillYear
	if !services.IsValidMonth(month) {
		month, year = services.DefaultPeriodMonth, services.DefaultPeriodYear
	}
	return templates.BillingFormData{
		T1Rate:          tariff.T1Rate.String(),
		T2Rate:          tariff.T2Rate.String(),
		FCSurchargeRate: tariff.FCSurchargeRate.String(),
		QtrTariffRate:   tariff.QtrTariffRate.String(),
		FPARate:         tariff.FPARate.String(),
		ApplyGST:        tariff.ApplyGST,
		ApplyFPA:        tariff.ApplyFPA,
		ApplyFPAGST:     tariff.ApplyFPAGST,
		BillMonth:       month,
		BillYear:        year,
		FPAMonth:        month,
		FPAYear:         year,
		AbsentPolicy:    cfg.AbsentPolicy,
		MonthOptions:    services.MonthOptions,
		YearOptions:     services.YearOptions,
		PolicyOptions:   policyOptions(),
	}
}

func policyOptions() []templates.PolicyOption {
	labels := map[services.AbsentReadingPolicy]string{
		services.AbsentAsZero: "Treat blank readings as zero",
		services.AbsentFails:  "Reject blank readings",
	}
	opts := make([]templates.PolicyOption, 0, len(services.AbsentPolicyOptions))
	for _, p := range services.AbsentPolicyOptions {
		opts = append(opts, templates.PolicyOption{Value: string(p), Label: labels[p]})
	}
	return opts
}

// formDecimal reads a non-negative number field; blank means zero.
func formDecimal(e *core.RequestEvent, name, label string) (decimal.Decimal, string, error) {
	raw := strings.TrimSpace(e.Request.FormValue(name))
	if raw == "" {
		return decimal.Zero, raw, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, raw, fmt.Errorf("%w: %s must be a number", services.ErrInvalidInput, label)
	}
	return d, raw, nil
}

// formPeriod reads a <prefix>_month / <prefix>_year pair.
func formPeriod(e *core.RequestEvent, prefix, label string) (string, int, error) {
	month := strings.TrimSpace(e.Request.FormValue(prefix + "_month"))
	if !services.IsValidMonth(month) {
		return "", 0, fmt.Errorf("%w: %s must be a month abbreviation", services.ErrInvalidInput, label)
	}
	year, err := strconv.Atoi(strings.TrimSpace(e.Request.FormValue(prefix + "_year")))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s year must be a number", services.ErrInvalidInput, label)
	}
	return month, year, nil
}

// parseBillingRequest reads the multipart billing form and parses the uploaded
// readings file. Tariff values are validated here. Once the form is parsed the
// request is returned even on error so the page can be re-rendered with the
// submitted values.
func parseBillingRequest(e *core.RequestEvent, cfg *config.Config) (*billingRequest, error) {
	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, cfg.UploadMaxBytes)
	if err := e.Request.ParseMultipartForm(cfg.UploadMaxBytes); err != nil {
		return nil, fmt.Errorf("%w: file too large or invalid form data", services.ErrInvalidInput)
	}

	req := &billingRequest{form: defaultBillingForm(cfg)}
	f := &req.form

	fields := []struct {
		name, label string
		dst         *decimal.Decimal
		raw         *string
	}{
		{"t1_rate", "T1 Tariff Rate", &req.tariff.T1Rate, &f.T1Rate},
		{"t2_rate", "T2 Tariff Rate", &req.tariff.T2Rate, &f.T2Rate},
		{"fc_surcharge_rate", "FC Surcharge Rate", &req.tariff.FCSurchargeRate, &f.FCSurchargeRate},
		{"qtr_tariff_rate", "Qtr Tariff Rate", &req.tariff.QtrTariffRate, &f.QtrTariffRate},
		{"fpa_rate", "FPA Rate", &req.tariff.FPARate, &f.FPARate},
	}
	for _, fd := range fields {
		d, raw, err := formDecimal(e, fd.name, fd.label)
		if err != nil {
			return req, err
		}
		*fd.dst = d
		*fd.raw = raw
	}
	req.tariff.ApplyGST = e.Request.FormValue("apply_gst") == "true"
	req.tariff.ApplyFPA = e.Request.FormValue("apply_fpa") == "true"
	req.tariff.ApplyFPAGST = e.Request.FormValue("apply_fpa_gst") == "true"
	req.tariff = req.tariff.Normalize()
	f.ApplyGST, f.ApplyFPA, f.ApplyFPAGST = req.tariff.ApplyGST, req.tariff.ApplyFPA, req.tariff.ApplyFPAGST

	var err error
	if f.BillMonth, f.BillYear, err = formPeriod(e, "bill", "Bill Month"); err != nil {
		return req, err
	}
	if f.FPAMonth, f.FPAYear, err = formPeriod(e, "fpa", "FPA Month"); err != nil {
		return req, err
	}
	f.AllowMissingPrevBill = e.Request.FormValue("allow_missing_prev_bill") == "true"
	f.AllowMissingPrevFPA = e.Request.FormValue("allow_missing_prev_fpa") == "true"
	policy := services.ParseAbsentReadingPolicy(e.Request.FormValue("absent_policy"))
	f.AbsentPolicy = string(policy)

	req.opts = services.RunOptions{
		BillingPeriod:        services.FormatPeriod(f.BillMonth, f.BillYear),
		FPAPeriod:            services.FormatPeriod(f.FPAMonth, f.FPAYear),
		AllowMissingPrevBill: f.AllowMissingPrevBill,
		AllowMissingPrevFPA:  f.AllowMissingPrevFPA,
		AbsentPolicy:         policy,
	}

	if err := req.tariff.Validate(); err != nil {
		return req, err
	}

	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return req, fmt.Errorf("%w: please select a readings file to upload", services.ErrInvalidInput)
	}
	defer file.Close()

	req.table, err = services.ParseReadings(file, header.Filename)
	if err != nil {
		return req, err
	}
	return req, nil
}

// billingErrorStatus maps a billing failure to its HTTP status.
func billingErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingPeriodData), errors.Is(err, services.ErrAbsentReading):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrFileProcessing),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrTariffRatesRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(e *core.RequestEvent) bool {
	return strings.Contains(e.Request.Header.Get("Accept"), "application/json")
}

// buildBillResult formats a run for the bill table.
func buildBillResult(run *services.BillRun) templates.BillResultData {
	data := templates.BillResultData{
		BillingPeriod: run.Billing.Period,
		FPAPeriod:     run.FPA.Period,
		Headers:       []string{services.DepartmentColumn},
	}
	for _, c := range services.BillColumns {
		data.Headers = append(data.Headers, c.Header)
	}
	for _, it := range run.Items {
		row := templates.BillRowView{Department: it.Department}
		for _, c := range services.BillColumns {
			row.Cells = append(row.Cells, services.FormatAmount(c.Value(it)))
		}
		data.Rows = append(data.Rows, row)
	}
	export := services.BillExportData{Items: run.Items}
	for _, total := range export.ColumnTotals() {
		data.Totals = append(data.Totals, services.FormatAmount(total))
	}

	s := run.Summary
	data.Summary = []templates.SummaryLine{
		{Label: "Total Units", Value: services.FormatAmount(s.TotalUnits)},
		{Label: "FC Surcharge", Value: services.FormatRupees(s.FCSurcharge)},
		{Label: "Qtr Tariff", Value: services.FormatRupees(s.QtrTariff)},
		{Label: "Base Bill", Value: services.FormatRupees(s.BaseBill)},
	}
	if run.Tariff.ApplyGST {
		data.Summary = append(data.Summary, templates.SummaryLine{Label: "GST (18%)", Value: services.FormatRupees(s.GST)})
	}
	if run.Tariff.ApplyFPA {
		data.Summary = append(data.Summary, templates.SummaryLine{Label: "FPA Charges", Value: services.FormatRupees(s.FPACharges)})
		if run.Tariff.ApplyFPAGST {
			data.Summary = append(data.Summary, templates.SummaryLine{Label: "FPA GST (18%)", Value: services.FormatRupees(s.FPAGST)})
		}
		data.Summary = append(data.Summary, templates.SummaryLine{Label: "Total FPA", Value: services.FormatRupees(s.TotalFPA)})
	}
	data.Summary = append(data.Summary, templates.SummaryLine{Label: "Total Bill", Value: services.FormatRupees(s.TotalBill)})
	return data
}

// billJSON is the JSON shape of a calculation.
type billJSON struct {
	BillingPeriod string                     `json:"billing_period"`
	FPAPeriod     string                     `json:"fpa_period"`
	Items         []billItemJSON             `json:"items"`
	Summary       map[string]decimal.Decimal `json:"summary"`
}

type billItemJSON struct {
	Department string                     `json:"department"`
	Values     map[string]decimal.Decimal `json:"values"`
}

func buildBillJSON(run *services.BillRun) billJSON {
	out := billJSON{
		BillingPeriod: run.Billing.Period,
		FPAPeriod:     run.FPA.Period,
		Items:         make([]billItemJSON, 0, len(run.Items)),
	}
	for _, it := range run.Items {
		rounded := it.Rounded()
		values := make(map[string]decimal.Decimal, len(services.BillColumns))
		for _, c := range services.BillColumns {
			values[c.Header] = c.Value(rounded)
		}
		out.Items = append(out.Items, billItemJSON{Department: it.Department, Values: values})
	}
	s := run.Summary
	out.Summary = map[string]decimal.Decimal{
		"total_units":  s.TotalUnits.Round(2),
		"fc_surcharge": s.FCSurcharge.Round(2),
		"qtr_tariff":   s.QtrTariff.Round(2),
		"base_bill":    s.BaseBill.Round(2),
		"gst":          s.GST.Round(2),
		"fpa_charges":  s.FPACharges.Round(2),
		"fpa_gst":      s.FPAGST.Round(2),
		"total_fpa":    s.TotalFPA.Round(2),
		"total_bill":   s.TotalBill.Round(2),
	}
	return out
}

// HandleBillingPage renders the billing form with configured defaults.
// Route: GET /billing
func HandleBillingPage(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data := defaultBillingForm(cfg)

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.BillingContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.BillingPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleBillingCalculate computes bills for the uploaded readings and renders
// the itemized table, or JSON when the client asks for it.
// Route: POST /billing/calculate
func HandleBillingCalculate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		fail := func(req *billingRequest, err error) error {
			status := billingErrorStatus(err)
			log.Printf("billing_calculate: %v", err)
			if wantsJSON(e) {
				return e.JSON(status, map[string]string{"error": err.Error()})
			}
			if e.Request.Header.Get("HX-Request") == "true" {
				return ErrorToast(e, status, err.Error())
			}
			form := defaultBillingForm(cfg)
			if req != nil {
				form = req.form
			}
			form.Result = templates.BillError(err.Error())
			e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
			e.Response.WriteHeader(status)
			return templates.BillingPage(form).Render(e.Request.Context(), e.Response)
		}

		req, err := parseBillingRequest(e, cfg)
		if err != nil {
			return fail(req, err)
		}
		run, err := services.ComputeBills(req.table, req.tariff, req.opts)
		if err != nil {
			return fail(req, err)
		}
		log.Printf("billing_calculate: %d departments billed for %s (FPA %s)",
			len(run.Items), run.Billing.Period, run.FPA.Period)

		if wantsJSON(e) {
			return e.JSON(http.StatusOK, buildBillJSON(run))
		}

		result := templates.BillResult(buildBillResult(run))
		if e.Request.Header.Get("HX-Request") == "true" {
			SetToast(e, ToastSuccess, fmt.Sprintf("Calculated bills for %d departments", len(run.Items)))
			return result.Render(e.Request.Context(), e.Response)
		}
		req.form.Result = result
		return templates.BillingPage(req.form).Render(e.Request.Context(), e.Response)
	}
}
