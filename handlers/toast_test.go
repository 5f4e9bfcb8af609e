package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

func newToastEvent() (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	return e, rec
}

func decodeToast(t *testing.T, trigger string) (map[string]json.RawMessage, toastPayload) {
	t.Helper()
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	raw, ok := parsed["showToast"]
	if !ok {
		t.Fatal("expected showToast key in HX-Trigger JSON")
	}
	var toast toastPayload
	if err := json.Unmarshal(raw, &toast); err != nil {
		t.Fatalf("showToast value is not valid JSON: %v", err)
	}
	return parsed, toast
}

func TestSetToast_Levels(t *testing.T) {
	tests := []struct {
		level   string
		message string
	}{
		{ToastSuccess, "Added Cement"},
		{ToastError, "missing previous month reading for billing: Jun-24 T1"},
		{ToastInfo, "Loaded 5 catalog items"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			e, rec := newToastEvent()
			SetToast(e, tt.level, tt.message)

			_, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
			if toast.Type != tt.level || toast.Message != tt.message {
				t.Errorf("got toast %+v, want type %q message %q", toast, tt.level, tt.message)
			}
		})
	}
}

func TestSetToast_MergesWithExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", `{"boqChanged":{"count":"3"}}`)

	SetToast(e, ToastSuccess, "Updated Cement")

	parsed, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
	if toast.Message != "Updated Cement" {
		t.Errorf("expected message %q, got %q", "Updated Cement", toast.Message)
	}
	var other map[string]string
	if err := json.Unmarshal(parsed["boqChanged"], &other); err != nil {
		t.Fatalf("boqChanged was not preserved: %v", err)
	}
	if other["count"] != "3" {
		t.Errorf("expected boqChanged.count %q, got %q", "3", other["count"])
	}
}

func TestSetToast_OverwritesInvalidExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, ToastError, "Overwritten")

	parsed, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
	if len(parsed) != 1 {
		t.Errorf("expected only showToast after overwrite, got %d keys", len(parsed))
	}
	if toast.Message != "Overwritten" {
		t.Errorf("expected message %q, got %q", "Overwritten", toast.Message)
	}
}

func TestSetToast_SpecialCharacters(t *testing.T) {
	for _, msg := range []string{
		`Item "Sand (river)" added`,
		`<script>alert("xss")</script>`,
		"line1\nline2",
		"Total ₹ 831.90",
	} {
		e, rec := newToastEvent()
		SetToast(e, ToastInfo, msg)

		_, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
		if toast.Message != msg {
			t.Errorf("expected message %q, got %q", msg, toast.Message)
		}
	}
}

func TestSetToast_FlashCookie(t *testing.T) {
	e, rec := newToastEvent()
	SetToast(e, ToastSuccess, "Loaded 5 catalog items")

	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashToastCookie {
			flash = c
		}
	}
	if flash == nil {
		t.Fatal("expected flash_toast cookie")
	}
	raw, err := url.QueryUnescape(flash.Value)
	if err != nil {
		t.Fatalf("cookie is not query-escaped: %v", err)
	}
	var toast toastPayload
	if err := json.Unmarshal([]byte(raw), &toast); err != nil {
		t.Fatalf("cookie is not JSON: %v", err)
	}
	if toast.Message != "Loaded 5 catalog items" {
		t.Errorf("unexpected cookie toast %+v", toast)
	}
}

func TestErrorToast(t *testing.T) {
	e, rec := newToastEvent()

	if err := ErrorToast(e, http.StatusUnprocessableEntity, "missing period"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap none")
	}
	_, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
	if toast.Type != ToastError {
		t.Errorf("expected error toast, got %q", toast.Type)
	}
}

func TestMergeTrigger_Empty(t *testing.T) {
	got, err := mergeTrigger("", toastPayload{Message: "hi", Type: ToastInfo})
	if err != nil {
		t.Fatalf("mergeTrigger error: %v", err)
	}
	want := `{"showToast":{"message":"hi","type":"info"}}`
	if got != want {
		t.Errorf("mergeTrigger() = %s, want %s", got, want)
	}
}
