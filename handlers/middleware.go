package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

// BOQSessionKey holds the BOQ session ID in the request context.
const BOQSessionKey contextKey = "boqSession"

// BOQSessionCookie names the cookie that keys a browser's BOQ lines.
const BOQSessionCookie = "boq_session"

const boqSessionMaxAge = 30 * 24 * 60 * 60

// GetBOQSession extracts the BOQ session ID from the request context.
func GetBOQSession(r *http.Request) string {
	if val, ok := r.Context().Value(BOQSessionKey).(string); ok {
		return val
	}
	return ""
}

// ensureBOQSession returns the session ID from the boq_session cookie,
// issuing a fresh one when the cookie is missing or not a UUID.
func ensureBOQSession(e *core.RequestEvent) string {
	if cookie, err := e.Request.Cookie(BOQSessionCookie); err == nil && cookie.Value != "" {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
		log.Printf("middleware: discarding malformed BOQ session %q", cookie.Value)
	}

	id := uuid.NewString()
	http.SetCookie(e.Response, &http.Cookie{
		Name:     BOQSessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   boqSessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// boqSession returns the session stored by BOQSessionMiddleware, falling back
// to the cookie for handlers mounted without it.
func boqSession(e *core.RequestEvent) string {
	if id := GetBOQSession(e.Request); id != "" {
		return id
	}
	return ensureBOQSession(e)
}

// BOQSessionMiddleware resolves the BOQ session for /boq requests and stores
// it in the request context so handlers share one ID per request.
func BOQSessionMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if !strings.HasPrefix(e.Request.URL.Path, "/boq") {
			return e.Next()
		}
		id := ensureBOQSession(e)
		ctx := context.WithValue(e.Request.Context(), BOQSessionKey, id)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}
