package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"utilitybilling/config"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// testConfig mirrors the environment defaults without reading the environment.
func testConfig() *config.Config {
	return &config.Config{
		T1Rate:         decimal.Zero,
		T2Rate:         decimal.Zero,
		ApplyGST:       true,
		BillMonth:      "Jul",
		BillYear:       2024,
		AbsentPolicy:   "zero",
		SeedCatalog:    true,
		UploadMaxBytes: 10 << 20,
	}
}

// scenarioReadings is one department using 50 T1 and 20 T2 units in Jul-24.
const scenarioReadings = "Department,Jun-24 T1,Jun-24 T2,Jul-24 T1,Jul-24 T2\n" +
	"Admin,100,50,150,70\n"

// scenarioForm is the billing form for scenarioReadings: 705 base, 126.9 GST.
func scenarioForm() map[string]string {
	return map[string]string{
		"t1_rate":           "10",
		"t2_rate":           "5",
		"fc_surcharge_rate": "1",
		"qtr_tariff_rate":   "0.5",
		"fpa_rate":          "0",
		"apply_gst":         "true",
		"bill_month":        "Jul",
		"bill_year":         "2024",
		"fpa_month":         "Jul",
		"fpa_year":          "2024",
		"absent_policy":     "zero",
	}
}

// multipartRequest builds a POST with form fields and an optional file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// formRequest builds a url-encoded POST.
func formRequest(target string, fields map[string]string) *http.Request {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withSession attaches a fresh boq_session cookie and returns its ID.
func withSession(req *http.Request) string {
	id := uuid.NewString()
	req.AddCookie(&http.Cookie{Name: BOQSessionCookie, Value: id})
	return id
}
