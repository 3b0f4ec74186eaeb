package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName identifies the anonymous cart session.
const SessionCookieName = "shopfront_session"

type ctxKey int

const sessionCtxKey ctxKey = iota

// sessionCookie assigns an anonymous session identity to every request. An
// existing cookie is reused; otherwise a fresh uuid is issued and set. The
// cart has no identity beyond this cookie.
func sessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the session identity assigned by sessionCookie.
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionCtxKey).(string)
	return sid
}
