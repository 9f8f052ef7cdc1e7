package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/fjod/furstore/internal/logger"
	"github.com/fjod/furstore/internal/service"
)

const (
	SessionCookie  = "sid"
	CustomerCookie = "customer"
	AdminCookie    = "admin"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	customerKey
	adminKey
)

// Identity is the signed-in user carried in the customer and admin cookies.
type Identity struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// SessionMiddleware makes sure every request has a session id, issuing a
// new sid cookie when the browser has none.
func SessionMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityMiddleware reads the customer and admin cookies. A malformed cookie
// is treated as absent.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id, ok := readIdentity(r, CustomerCookie); ok {
			ctx = context.WithValue(ctx, customerKey, id)
		}
		if id, ok := readIdentity(r, AdminCookie); ok {
			ctx = context.WithValue(ctx, adminKey, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readIdentity(r *http.Request, name string) (Identity, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return Identity{}, false
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return Identity{}, false
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID <= 0 {
		if err != nil {
			logger.FromContext(r.Context()).Debug().Err(err).Str("cookie", name).Msg("ignoring malformed identity cookie")
		}
		return Identity{}, false
	}
	return id, true
}

func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := customerFromContext(r.Context()); !ok {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "sign in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(adminKey).(Identity); !ok {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "admin sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func customerFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(customerKey).(Identity)
	return id, ok
}

func visitorFromContext(ctx context.Context) service.Visitor {
	v := service.Visitor{}
	v.SessionID, _ = ctx.Value(sessionIDKey).(string)
	if id, ok := customerFromContext(ctx); ok {
		v.CustomerID = id.ID
	}
	return v
}
