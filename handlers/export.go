package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"utilitybilling/config"
	"utilitybilling/services"
)

// Export formats accepted by the download routes.
const (
	FormatExcel = "excel"
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
)

type exportFormat struct {
	ext         string
	contentType string
}

var exportFormats = map[string]exportFormat{
	FormatExcel: {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	FormatCSV:   {"csv", "text/csv; charset=utf-8"},
	FormatPDF:   {"pdf", "application/pdf"},
}

// exportDate is the date printed on every generated document.
func exportDate() string {
	return time.Now().Format("02 Jan 2006")
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// writeDownload sends body as an attachment named base.<ext>.
func writeDownload(e *core.RequestEvent, format, base string, body []byte) error {
	f := exportFormats[format]
	filename := fmt.Sprintf("%s.%s", sanitizeFilename(base), f.ext)

	e.Response.Header().Set("Content-Type", f.contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, err := e.Response.Write(body)
	return err
}

// HandleBillingExport returns a handler that computes bills from the posted
// form and downloads them in format.
// Route: POST /billing/export/{format}
func HandleBillingExport(app *pocketbase.PocketBase, cfg *config.Config, format string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		req, err := parseBillingRequest(e, cfg)
		if err != nil {
			log.Printf("export_bill: %v", err)
			return ErrorToast(e, billingErrorStatus(err), err.Error())
		}
		run, err := services.ComputeBills(req.table, req.tariff, req.opts)
		if err != nil {
			log.Printf("export_bill: %v", err)
			return ErrorToast(e, billingErrorStatus(err), err.Error())
		}

		data := services.NewBillExportData(run, exportDate())
		var body []byte
		switch format {
		case FormatExcel:
			body, err = services.GenerateBillExcel(data)
		case FormatCSV:
			body, err = services.GenerateBillCSV(data)
		case FormatPDF:
			body, err = services.GenerateBillPDF(data)
		default:
			return ErrorToast(e, http.StatusNotFound, "Unknown export format")
		}
		if err != nil {
			log.Printf("export_bill: failed to generate %s: %v", format, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate file")
		}

		return writeDownload(e, format, "Electricity_Bill_"+data.BillingPeriod, body)
	}
}

// HandleBOQExport returns a handler that downloads the session's BOQ in format.
// Route: GET /boq/export/{format}
func HandleBOQExport(app *pocketbase.PocketBase, format string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store := services.NewRecordLineStore(app, boqSession(e))
		entries, err := store.List(e.Request.Context())
		if err != nil {
			log.Printf("export_boq: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		data := services.NewBOQExportData(entries, exportDate())
		var body []byte
		switch format {
		case FormatExcel:
			body, err = services.GenerateBOQExcel(data)
		case FormatPDF:
			body, err = services.GenerateBOQPDF(data)
		default:
			return ErrorToast(e, http.StatusNotFound, "Unknown export format")
		}
		if err != nil {
			log.Printf("export_boq: failed to generate %s: %v", format, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate file")
		}

		return writeDownload(e, format, fmt.Sprintf("BOQ_%s", time.Now().Format("2006-01-02")), body)
	}
}
