// Package handlers provides the HTTP handlers for the gold tracker.
package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"goldtracker/internal/errors"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/middleware"
	"goldtracker/internal/models"
	"goldtracker/internal/session"
)

// Local-store keys under each client's namespace.
const (
	userInfoKey   = "user_info"
	calculatorKey = "calculator_input"
)

// render renders a page template inside the base layout.
func render(log *logging.Logger, templates map[string]*template.Template, w http.ResponseWriter, name string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}

	tmpl, ok := templates[name]
	if !ok {
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("rendering page failed")
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleExpired redirects to the login page when the error is
// session-terminating. Returns true when it consumed the error.
// By the time the API reports a 401 the token store is already cleared,
// so the redirect is the only remaining step.
func handleExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.IsSessionExpired(err) {
		return false
	}
	if svc := middleware.SessionFromContext(r.Context()); svc != nil {
		svc.CheckAuth()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// safeReturnPath validates a "from" redirect target. Only same-site
// absolute paths are accepted; anything else falls back to the default.
func safeReturnPath(from, fallback string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return fallback
	}
	return from
}

// currentSession returns the request's session service.
func currentSession(r *http.Request) *session.Service {
	return middleware.SessionFromContext(r.Context())
}

// saveUserInfo caches the display profile under the client's namespace.
// Failures are tolerated; the profile is cosmetic.
func saveUserInfo(store *localstore.Store, clientID string, user models.UserSummary) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	_ = store.Set("client:"+clientID, userInfoKey, string(data))
}

// loadUserInfo returns the cached display profile, if any.
func loadUserInfo(store *localstore.Store, clientID string) (models.UserSummary, bool) {
	raw, ok, err := store.Get("client:"+clientID, userInfoKey)
	if err != nil || !ok {
		return models.UserSummary{}, false
	}
	var user models.UserSummary
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.UserSummary{}, false
	}
	return user, true
}

// clearUserInfo drops the cached profile on logout.
func clearUserInfo(store *localstore.Store, clientID string) {
	_ = store.Delete("client:"+clientID, userInfoKey)
}
