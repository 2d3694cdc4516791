package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"goldtracker/internal/auth"
	"goldtracker/internal/errors"
	"goldtracker/internal/goldapi"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/middleware"
	"goldtracker/internal/models"
)

const stateCookieName = "oauth_state"

// AuthHandler handles the sign-in, registration and OAuth callback routes.
type AuthHandler struct {
	templates map[string]*template.Template
	api       *goldapi.Client
	// standalone replaces the remote API for credential checks when the
	// tracker runs without one. nil in remote mode.
	standalone *auth.Standalone
	sso        *auth.SSO
	store      *localstore.Store
	baseURL    string
	log        *logging.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	templates map[string]*template.Template,
	api *goldapi.Client,
	standalone *auth.Standalone,
	sso *auth.SSO,
	store *localstore.Store,
	baseURL string,
	log *logging.Logger,
) *AuthHandler {
	return &AuthHandler{
		templates:  templates,
		api:        api,
		standalone: standalone,
		sso:        sso,
		store:      store,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

func (h *AuthHandler) googleEnabled() bool {
	if h.standalone != nil {
		return h.sso != nil && h.sso.Enabled
	}
	return true
}

// LoginPage renders the login page.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(h.log, h.templates, w, "login.html", map[string]any{
		"Title":         "Sign in",
		"From":          safeReturnPath(r.URL.Query().Get("from"), ""),
		"GoogleEnabled": h.googleEnabled(),
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, "Invalid form data", "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	from := safeReturnPath(r.FormValue("from"), "/gold-price")

	if email == "" || password == "" {
		h.renderLoginError(w, "Email and password are required", from)
		return
	}

	var (
		token string
		user  models.UserSummary
		err   error
	)
	if h.standalone != nil {
		token, user, err = h.standalone.Login(email, password)
	} else {
		var resp *goldapi.LoginResponse
		resp, err = h.api.Login(r.Context(), goldapi.LoginRequest{Email: email, Password: password})
		if err == nil {
			token, user = resp.AccessToken, resp.User
		}
	}
	if err != nil {
		h.log.Info().Str("email", email).Err(err).Msg("login rejected")
		h.renderLoginError(w, errors.UserMessage(err), from)
		return
	}

	h.completeSignIn(w, r, token, user, from)
}

// RegisterPage renders the registration page.
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	render(h.log, h.templates, w, "register.html", map[string]any{
		"Title":         "Create account",
		"GoogleEnabled": h.googleEnabled(),
	})
}

// Register handles the registration form submission.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if email == "" || password == "" {
		h.renderRegisterError(w, "Email and password are required")
		return
	}
	if password != confirm {
		h.renderRegisterError(w, "Passwords do not match")
		return
	}

	var (
		token string
		user  models.UserSummary
		err   error
	)
	if h.standalone != nil {
		token, user, err = h.standalone.Register(email, username, password)
	} else {
		var resp *goldapi.LoginResponse
		resp, err = h.api.Register(r.Context(), goldapi.RegisterRequest{
			Email:    email,
			Username: username,
			Password: password,
		})
		if err == nil {
			token, user = resp.AccessToken, resp.User
		}
	}
	if err != nil {
		h.renderRegisterError(w, errors.UserMessage(err))
		return
	}

	h.completeSignIn(w, r, token, user, "/gold-price")
}

// ForgotPasswordPage renders the password reset instructions page.
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	render(h.log, h.templates, w, "forgot-password.html", map[string]any{
		"Title": "Forgot password",
	})
}

// Logout ends the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if svc := currentSession(r); svc != nil {
		if err := svc.Logout(); err != nil {
			h.log.Warn().Err(err).Msg("logout could not fully clear the token store")
		}
	}
	clearUserInfo(h.store, middleware.ClientIDFromContext(r.Context()))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GoogleLogin starts the Google sign-in flow. In remote mode the browser is
// handed to the API, which runs the flow and lands back on /auth-success
// with the token. In standalone mode the flow runs here via OIDC.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.standalone == nil {
		redirectURI := h.baseURL + "/auth-success"
		http.Redirect(w, r, h.api.GoogleLoginURL(redirectURI), http.StatusSeeOther)
		return
	}

	if h.sso == nil || !h.sso.Enabled {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.sso.AuthURL(state), http.StatusSeeOther)
}

// GoogleCallback finishes the Google sign-in flow.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.renderLoginError(w, "Google sign-in was cancelled", "")
		return
	}

	if h.standalone == nil {
		resp, err := h.api.GoogleCallback(r.Context(), code)
		if err != nil {
			h.renderLoginError(w, errors.UserMessage(err), "")
			return
		}
		h.completeSignIn(w, r, resp.AccessToken, resp.User, "/gold-price")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.renderLoginError(w, "Google sign-in could not be verified, please try again", "")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	identity, err := h.sso.Exchange(r.Context(), code)
	if err != nil {
		h.log.Warn().Err(err).Msg("google code exchange failed")
		h.renderLoginError(w, "Google sign-in failed, please try again", "")
		return
	}

	token, user, err := h.standalone.LoginVerified(identity.Email, identity.Name, identity.Picture)
	if err != nil {
		h.renderLoginError(w, errors.UserMessage(err), "")
		return
	}
	h.completeSignIn(w, r, token, user, "/gold-price")
}

// AuthSuccess is the landing route for externally completed sign-ins. The
// token arrives in the query string under access_token, token or jwt; the
// profile fields ride along when the issuer supplies them.
func (h *AuthHandler) AuthSuccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var token string
	for _, key := range []string{"access_token", "token", "jwt"} {
		if v := q.Get(key); v != "" {
			token = v
			break
		}
	}
	if token == "" {
		h.log.Info().Msg("auth-success landing without a token")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user := models.UserSummary{
		Email:    q.Get("email"),
		Username: q.Get("username"),
		Picture:  q.Get("picture"),
	}
	if user.Username == "" {
		user.Username = q.Get("name")
	}

	h.completeSignIn(w, r, token, user, "/gold-price")
}

// LoginQR serves a QR code of the sign-in page so a phone can pick up the
// flow from a desktop screen.
func (h *AuthHandler) LoginQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(h.baseURL+"/login", qrcode.Medium, 256)
	if err != nil {
		h.log.Error().Err(err).Msg("encoding login qr failed")
		http.Error(w, "Error generating QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// completeSignIn persists the token, caches the profile and navigates to
// the landing page. A token store write failure keeps the user signed out.
func (h *AuthHandler) completeSignIn(w http.ResponseWriter, r *http.Request, token string, user models.UserSummary, target string) {
	svc := currentSession(r)
	if svc == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := svc.Login(token); err != nil {
		h.log.Error().Err(err).Msg("persisting token failed on both tiers")
		h.renderLoginError(w, "Sign-in could not be saved. Please try again.", "")
		return
	}

	clientID := middleware.ClientIDFromContext(r.Context())
	switch {
	case user.Email != "":
		saveUserInfo(h.store, clientID, user)
	case h.standalone == nil:
		// The token was just written to this request's token store, so the
		// context token source already carries it for the profile fetch.
		if profile, err := h.api.Profile(r.Context()); err == nil {
			saveUserInfo(h.store, clientID, *profile)
		}
	}

	http.Redirect(w, r, safeReturnPath(target, "/gold-price"), http.StatusSeeOther)
}

// renderLoginError renders the login page with an error message.
func (h *AuthHandler) renderLoginError(w http.ResponseWriter, errMsg, from string) {
	render(h.log, h.templates, w, "login.html", map[string]any{
		"Title":         "Sign in",
		"Error":         errMsg,
		"From":          from,
		"GoogleEnabled": h.googleEnabled(),
	})
}

// renderRegisterError renders the register page with an error message.
func (h *AuthHandler) renderRegisterError(w http.ResponseWriter, errMsg string) {
	render(h.log, h.templates, w, "register.html", map[string]any{
		"Title":         "Create account",
		"Error":         errMsg,
		"GoogleEnabled": h.googleEnabled(),
	})
}
