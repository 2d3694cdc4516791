// Package middleware wires the per-request session and the route guard.
package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"goldtracker/internal/goldapi"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/session"
	"goldtracker/internal/tokenstore"
)

type contextKey string

const (
	sessionKey    contextKey = "session"
	clientIDKey   contextKey = "client_id"
	redirectedKey contextKey = "redirected"
)

// ClientCookieName identifies a browser across requests so its fallback
// token tier and cached data have a stable namespace.
const ClientCookieName = "client_id"

const clientCookieMaxAge = 365 * 24 * 60 * 60

// Callback routes are exempt from the authenticated redirect so a sign-in
// landing with a fresh token is never bounced before it can store it.
var callbackPaths = map[string]bool{
	"/auth-success":         true,
	"/auth/google/callback": true,
}

// Guard builds the per-request session and enforces route access.
type Guard struct {
	store   *localstore.Store
	secure  bool
	log     *logging.Logger
	onEnded []func(clientID string)
}

// NewGuard creates the route guard.
func NewGuard(store *localstore.Store, secure bool, log *logging.Logger) *Guard {
	if log == nil {
		log = logging.NewSilent()
	}
	return &Guard{store: store, secure: secure, log: log}
}

// OnSessionEnded registers a listener invoked with the client ID whenever
// that client's session ends. Registered once at composition time.
func (g *Guard) OnSessionEnded(fn func(clientID string)) {
	g.onEnded = append(g.onEnded, fn)
}

// LoadSession assembles the two-tier token store for this request, builds a
// session service on top of it, resolves the auth state and stores both the
// session and the token source in the request context. Every downstream
// handler and the API client read from these.
func (g *Guard) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := g.ensureClientID(w, r)

		tokens := tokenstore.New(
			tokenstore.NewCookieLocation(w, r, g.secure),
			tokenstore.NewFallbackLocation(g.store, clientID),
			g.log,
		)
		svc := session.New(tokens)
		for _, fn := range g.onEnded {
			fn := fn
			svc.SubscribeEnded(func() { fn(clientID) })
		}
		svc.CheckAuth()

		ctx := context.WithValue(r.Context(), sessionKey, svc)
		ctx = context.WithValue(ctx, clientIDKey, clientID)
		ctx = goldapi.WithTokenSource(ctx, tokens)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth lets authenticated requests through and sends everyone else
// to the login page with the original path preserved in the "from" query
// parameter. While the session is still resolving no redirect is issued.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc := SessionFromContext(r.Context())
		if svc == nil {
			redirectOnce(w, r, "/login")
			return
		}
		switch svc.State() {
		case session.Authenticated:
			next.ServeHTTP(w, r)
		case session.Bootstrapping:
			serveResolving(w)
		default:
			target := "/login?from=" + url.QueryEscape(r.URL.Path)
			redirectOnce(w, r, target)
		}
	})
}

// RedirectIfAuthenticated keeps signed-in users off the public-only pages
// (login, register, forgot-password) by sending them to the price board.
// Callback routes are exempt.
func (g *Guard) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callbackPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		svc := SessionFromContext(r.Context())
		if svc != nil && svc.State() == session.Authenticated {
			redirectOnce(w, r, "/gold-price")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureClientID reads the client cookie, minting and setting one when the
// browser shows up without it.
func (g *Guard) ensureClientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(ClientCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	clientID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    clientID,
		Path:     "/",
		MaxAge:   clientCookieMaxAge,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return clientID
}

// redirectOnce issues at most one redirect per request chain. A second call
// on the same request falls through silently, which keeps two guards that
// both want to redirect from fighting over the response.
func redirectOnce(w http.ResponseWriter, r *http.Request, target string) {
	if flag, ok := r.Context().Value(redirectedKey).(*bool); ok {
		if *flag {
			return
		}
		*flag = true
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// MarkRedirectable arms the single-redirect flag for the request chain.
func MarkRedirectable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flag := false
		ctx := context.WithValue(r.Context(), redirectedKey, &flag)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serveResolving answers a request whose session state is still unknown
// without committing to a redirect either way.
func serveResolving(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="1"><title>Loading</title></head><body><p>Loading…</p></body></html>`))
}

// SessionFromContext returns the per-request session service, or nil when
// LoadSession did not run.
func SessionFromContext(ctx context.Context) *session.Service {
	svc, _ := ctx.Value(sessionKey).(*session.Service)
	return svc
}

// ClientIDFromContext returns the request's client ID.
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}
