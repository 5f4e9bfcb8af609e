package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
)

// Toast levels understood by static/js/toast.js.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

const (
	toastEvent       = "showToast"
	flashToastCookie = "flash_toast"
)

type toastPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// mergeTrigger adds the toast event to an HX-Trigger value. Other events in
// existing are kept; an existing value that is not a JSON object is replaced.
func mergeTrigger(existing string, toast toastPayload) (string, error) {
	events := map[string]any{}
	if existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			events = map[string]any{}
		}
	}
	events[toastEvent] = toast

	data, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetToast queues a toast for the client. HTMX requests get it through the
// HX-Trigger header; a short-lived flash cookie carries it across regular
// redirects, such as the catalog upload.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := toastPayload{Message: message, Type: toastType}

	trigger, err := mergeTrigger(e.Response.Header().Get("HX-Trigger"), toast)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", trigger)

	cookieVal, err := json.Marshal(toast)
	if err != nil {
		return
	}
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashToastCookie,
		Value:    url.QueryEscape(string(cookieVal)),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: false, // read by toast.js
		SameSite: http.SameSiteLaxMode,
	})
}

// ErrorToast reports a failure as an error toast and tells HTMX not to swap
// the plain-text body into the page.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, ToastError, message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
