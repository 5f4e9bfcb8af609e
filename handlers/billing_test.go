package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"utilitybilling/services"
	"utilitybilling/testhelpers"
)

func TestHandleBillingPage_FullPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/billing", nil)
	rec := httptest.NewRecorder()

	if err := HandleBillingPage(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"<!doctype html>",
		`name="t1_rate"`,
		`name="apply_gst" value="true" checked`,
		`<option value="Jul" selected>Jul</option>`,
		`<option value="2024" selected>2024</option>`,
		`id="bill-result"`,
	)
}

func TestHandleBillingPage_HTMXFragment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/billing", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	if err := HandleBillingPage(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	body := rec.Body.String()
	if strings.Contains(body, "<!doctype html>") {
		t.Error("HTMX request should render the fragment only")
	}
	testhelpers.AssertHTMLContains(t, body, `id="billing-form"`)
}

func TestHandleBillingCalculate_HTMX(t *testing.T) {
	req := multipartRequest(t, "/billing/calculate", scenarioForm(), "readings.csv", []byte(scenarioReadings))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"Bills for Jul-24",
		"<td>Admin</td>",
		`<td class="num">705.00</td>`,
		`<td class="num">126.90</td>`,
		"<dt>Total Bill</dt><dd>Rs. 831.90</dd>",
	)
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "Calculated bills for 1 departments") {
		t.Errorf("expected success toast, got %q", rec.Header().Get("HX-Trigger"))
	}
}

func TestHandleBillingCalculate_FullPageKeepsForm(t *testing.T) {
	req := multipartRequest(t, "/billing/calculate", scenarioForm(), "readings.csv", []byte(scenarioReadings))
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"<!doctype html>",
		`name="t1_rate" value="10"`,
		`name="qtr_tariff_rate" value="0.5"`,
		"Rs. 831.90",
	)
}

func TestHandleBillingCalculate_JSON(t *testing.T) {
	req := multipartRequest(t, "/billing/calculate", scenarioForm(), "readings.csv", []byte(scenarioReadings))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got billJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	if got.BillingPeriod != "Jul-24" || got.FPAPeriod != "Jul-24" {
		t.Errorf("unexpected periods %q / %q", got.BillingPeriod, got.FPAPeriod)
	}
	if len(got.Items) != 1 || got.Items[0].Department != "Admin" {
		t.Fatalf("unexpected items %+v", got.Items)
	}

	checks := map[string]string{"base_bill": "705", "gst": "126.9", "total_bill": "831.9"}
	for field, want := range checks {
		if !got.Summary[field].Equal(decimal.RequireFromString(want)) {
			t.Errorf("summary %s = %s, want %s", field, got.Summary[field], want)
		}
	}
	if !got.Items[0].Values["Base Bill"].Equal(decimal.RequireFromString("705")) {
		t.Errorf("Base Bill = %s, want 705", got.Items[0].Values["Base Bill"])
	}
}

func TestHandleBillingCalculate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		edit       func(map[string]string)
		file       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "first period has no previous month",
			edit:       func(f map[string]string) { f["bill_month"] = "Jun" },
			file:       scenarioReadings,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "missing previous month reading for billing",
		},
		{
			name:       "selected month not in file",
			edit:       func(f map[string]string) { f["fpa_month"] = "Dec" },
			file:       scenarioReadings,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "missing FPA month reading",
		},
		{
			name:       "tier rate missing",
			edit:       func(f map[string]string) { f["t1_rate"] = "0" },
			file:       scenarioReadings,
			wantStatus: http.StatusBadRequest,
			wantMsg:    services.ErrTariffRatesRequired.Error(),
		},
		{
			name:       "negative rate",
			edit:       func(f map[string]string) { f["fc_surcharge_rate"] = "-1" },
			file:       scenarioReadings,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "FC Surcharge Rate must not be negative",
		},
		{
			name:       "rate not a number",
			edit:       func(f map[string]string) { f["t2_rate"] = "five" },
			file:       scenarioReadings,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "T2 Tariff Rate must be a number",
		},
		{
			name:       "bad month",
			edit:       func(f map[string]string) { f["bill_month"] = "July" },
			file:       scenarioReadings,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Bill Month must be a month abbreviation",
		},
		{
			name:       "no department column",
			file:       "Dept,Jul-24 T1\nAdmin,1\n",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "read readings file",
		},
		{
			name: "blank reading rejected by policy",
			edit: func(f map[string]string) { f["absent_policy"] = "fail" },
			file: "Department,Jun-24 T1,Jun-24 T2,Jul-24 T1,Jul-24 T2\n" +
				"Admin,100,,150,70\n",
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "has no reading for Jun-24 T2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := scenarioForm()
			if tt.edit != nil {
				tt.edit(form)
			}
			req := multipartRequest(t, "/billing/calculate", form, "readings.csv", []byte(tt.file))
			req.Header.Set("HX-Request", "true")
			rec := httptest.NewRecorder()

			if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("expected body to contain %q, got %q", tt.wantMsg, rec.Body.String())
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap none on error")
			}
		})
	}
}

func TestHandleBillingCalculate_MissingPreviousFallback(t *testing.T) {
	form := scenarioForm()
	form["bill_month"] = "Jun"
	form["fpa_month"] = "Jun"
	form["allow_missing_prev_bill"] = "true"
	form["allow_missing_prev_fpa"] = "true"
	req := multipartRequest(t, "/billing/calculate", form, "readings.csv", []byte(scenarioReadings))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got billJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	// Cumulative readings become the consumption: 100 T1 + 50 T2 units.
	if !got.Summary["total_units"].Equal(decimal.NewFromInt(150)) {
		t.Errorf("total_units = %s, want 150", got.Summary["total_units"])
	}
}

func TestHandleBillingCalculate_JSONError(t *testing.T) {
	form := scenarioForm()
	form["bill_month"] = "Jun"
	req := multipartRequest(t, "/billing/calculate", form, "readings.csv", []byte(scenarioReadings))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !strings.Contains(body["error"], "missing previous month reading") {
		t.Errorf("unexpected error body %q", body["error"])
	}
}

func TestHandleBillingCalculate_NoFile(t *testing.T) {
	req := multipartRequest(t, "/billing/calculate", scenarioForm(), "", nil)
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "please select a readings file") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHandleBillingCalculate_FullPageError(t *testing.T) {
	form := scenarioForm()
	form["bill_month"] = "Jun"
	req := multipartRequest(t, "/billing/calculate", form, "readings.csv", []byte(scenarioReadings))
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, testConfig())(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "" {
		t.Error("plain form submit should not get HTMX headers")
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"<!doctype html>",
		`<div class="alert alert-error" role="alert">`,
		"missing previous month reading for billing",
		`name="t1_rate" value="10"`,
		`<option value="Jun" selected>Jun</option>`,
	)
}

func TestHandleBillingCalculate_UploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.UploadMaxBytes = 64
	req := multipartRequest(t, "/billing/calculate", scenarioForm(), "readings.csv", []byte(strings.Repeat(scenarioReadings, 20)))
	rec := httptest.NewRecorder()

	if err := HandleBillingCalculate(nil, cfg)(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleBillingExport(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		ext         string
		magic       string
	}{
		{FormatExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", "PK"},
		{FormatCSV, "text/csv; charset=utf-8", "csv", "Department,T1 Units"},
		{FormatPDF, "application/pdf", "pdf", "%PDF-"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			req := multipartRequest(t, "/billing/export/"+tt.format, scenarioForm(), "readings.csv", []byte(scenarioReadings))
			rec := httptest.NewRecorder()

			if err := HandleBillingExport(nil, testConfig(), tt.format)(newTestRequestEvent(nil, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			wantDisp := fmt.Sprintf(`attachment; filename="Electricity_Bill_Jul-24.%s"`, tt.ext)
			if cd := rec.Header().Get("Content-Disposition"); cd != wantDisp {
				t.Errorf("Content-Disposition = %q, want %q", cd, wantDisp)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.magic) {
				t.Errorf("body does not start with %q", tt.magic)
			}
		})
	}
}

func TestHandleBillingExport_ComputationError(t *testing.T) {
	form := scenarioForm()
	form["bill_month"] = "Jun"
	req := multipartRequest(t, "/billing/export/csv", form, "readings.csv", []byte(scenarioReadings))
	rec := httptest.NewRecorder()

	if err := HandleBillingExport(nil, testConfig(), FormatCSV)(newTestRequestEvent(nil, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("no download expected on failure")
	}
}

func TestBillingErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.MissingPeriodDataError{Purpose: services.PurposeBilling, Tier: services.TierT1}, http.StatusUnprocessableEntity},
		{&services.AbsentReadingError{Department: "Admin"}, http.StatusUnprocessableEntity},
		{&services.FileProcessingError{Op: "read", Err: errors.New("boom")}, http.StatusBadRequest},
		{services.ErrTariffRatesRequired, http.StatusBadRequest},
		{fmt.Errorf("%w: bad", services.ErrInvalidInput), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := billingErrorStatus(tt.err); got != tt.want {
			t.Errorf("billingErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDefaultBillingForm_FallsBackToDefaultPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.BillMonth = ""
	cfg.BillYear = 0

	form := defaultBillingForm(cfg)
	if form.BillMonth != services.DefaultPeriodMonth || form.BillYear != services.DefaultPeriodYear {
		t.Errorf("got %s %d, want default period", form.BillMonth, form.BillYear)
	}
	if len(form.PolicyOptions) != 2 || form.PolicyOptions[0].Value != "zero" {
		t.Errorf("unexpected policy options %+v", form.PolicyOptions)
	}
}
