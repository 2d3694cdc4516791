package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"goldtracker/internal/assets"
	"goldtracker/internal/auth"
	"goldtracker/internal/config"
	"goldtracker/internal/goldapi"
	"goldtracker/internal/handlers"
	"goldtracker/internal/localstore"
	"goldtracker/internal/logging"
	"goldtracker/internal/middleware"
	"goldtracker/internal/models"
	"goldtracker/internal/prices"
	"goldtracker/internal/session"
)

// App holds the application dependencies.
type App struct {
	config        *config.Config
	log           *logging.Logger
	store         *localstore.Store
	templates     TemplateCache
	router        *chi.Mux
	apiClient     *goldapi.Client
	priceService  *prices.Service
	assetManager  *assets.Manager
	guard         *middleware.Guard
	authHandler   *handlers.AuthHandler
	pricesHandler *handlers.PricesHandler
	assetsHandler *handlers.AssetsHandler
}

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level)

	store, err := localstore.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("opening local store failed")
	}
	defer store.Close()

	apiClient := goldapi.NewClient(cfg.API.BaseURL, log.Component("goldapi"))
	if timeout, err := time.ParseDuration(cfg.API.Timeout); err == nil && timeout > 0 {
		apiClient.WithHTTPClient(&http.Client{Timeout: timeout})
	}
	apiClient.OnUnauthorized(func() {
		log.Info().Msg("bearer token rejected, session invalidated")
	})

	priceService := prices.New(apiClient, log.Component("prices"))

	// Standalone mode replaces the remote API for credentials and lots.
	var (
		standalone *auth.Standalone
		sso        *auth.SSO
	)
	if cfg.Standalone.Enabled {
		issuer := auth.NewTokenIssuer(cfg.Standalone.JWTSecret)
		standalone = auth.NewStandalone(store, issuer)
		if err := standalone.EnsureDemoUser(); err != nil {
			log.Fatal().Err(err).Msg("seeding demo user failed")
		}

		redirectURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/auth/google/callback"
		sso, err = auth.NewSSO(context.Background(), cfg.Google.ClientID, cfg.Google.ClientSecret, redirectURL)
		if err != nil {
			log.Fatal().Err(err).Msg("configuring google sign-in failed")
		}
		log.Info().Bool("google", sso.Enabled).Msg("running in standalone mode")
	}

	assetManager := assets.NewManager(func(clientID string) assets.API {
		if cfg.Standalone.Enabled {
			return assets.NewRepository(store, clientID)
		}
		return apiClient
	})

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	guard := middleware.NewGuard(store, secure, log.Component("guard"))
	guard.OnSessionEnded(assetManager.ClearClient)

	templates, err := parseTemplates()
	if err != nil {
		log.Fatal().Err(err).Msg("parsing templates failed")
	}

	app := &App{
		config:       cfg,
		log:          log,
		store:        store,
		templates:    templates,
		apiClient:    apiClient,
		priceService: priceService,
		assetManager: assetManager,
		guard:        guard,
		authHandler: handlers.NewAuthHandler(
			templates, apiClient, standalone, sso, store, cfg.Server.BaseURL, log.Component("auth"),
		),
		pricesHandler: handlers.NewPricesHandler(templates, priceService, apiClient, store, log.Component("prices")),
		assetsHandler: handlers.NewAssetsHandler(templates, assetManager, priceService, store, log.Component("assets")),
	}

	app.setupRouter()

	pollCtx, stopPolling := context.WithCancel(context.Background())
	priceService.Start(pollCtx)

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	stopPolling()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func (app *App) setupRouter() {
	r := chi.NewRouter()

	// Chi middleware (aliased as chimw to avoid conflict with our middleware package)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Compress(5))

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MarkRedirectable)
	r.Use(app.guard.LoadSession)

	// Static files
	workDir, _ := os.Getwd()
	staticPath := filepath.Join(workDir, "web", "static")
	fileServer := http.FileServer(http.Dir(staticPath))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/health", app.handleHealth)

	// Public routes. Signed-in users are bounced to the price board, except
	// on the sign-in callback routes.
	r.Group(func(r chi.Router) {
		r.Use(app.guard.RedirectIfAuthenticated)
		r.Use(middleware.LimitAuth)
		r.Get("/login", app.authHandler.LoginPage)
		r.Post("/login", app.authHandler.Login)
		r.Get("/login/qr.png", app.authHandler.LoginQR)
		r.Get("/register", app.authHandler.RegisterPage)
		r.Post("/register", app.authHandler.Register)
		r.Get("/forgot-password", app.authHandler.ForgotPasswordPage)
		r.Get("/auth/google", app.authHandler.GoogleLogin)
		r.Get("/auth/google/callback", app.authHandler.GoogleCallback)
		r.Get("/auth-success", app.authHandler.AuthSuccess)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(app.guard.RequireAuth)

		r.Get("/gold-price", app.pricesHandler.GoldPricePage)
		r.Get("/gold-price/history", app.pricesHandler.PriceHistoryPage)
		r.Post("/gold-price/calculate", app.pricesHandler.Calculate)

		r.Get("/assets", app.assetsHandler.AssetsPage)
		r.Post("/assets", app.assetsHandler.CreateAsset)
		r.Post("/assets/{id}", app.assetsHandler.UpdateAsset)
		r.Post("/assets/{id}/delete", app.assetsHandler.DeleteAsset)

		r.Group(func(r chi.Router) {
			r.Use(middleware.LimitAPI)
			r.Get("/api/gold-prices", app.pricesHandler.APIGoldPrices)
			r.Get("/api/assets/valuation", app.assetsHandler.APIValuation)
		})
	})

	// Logout (needs to be reachable while signed in)
	r.Post("/logout", app.authHandler.Logout)

	// Index route redirects based on auth status
	r.Get("/", app.handleIndex)

	app.router = r
}

// handleHealth returns the server health status.
func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := app.priceService.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","pricesDegraded":%t}`, snap.Degraded)
}

// handleIndex sends signed-in users to the price board and everyone else to
// the login page.
func (app *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	svc := middleware.SessionFromContext(r.Context())
	if svc != nil && svc.State() == session.Authenticated {
		http.Redirect(w, r, "/gold-price", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// TemplateCache holds parsed templates.
type TemplateCache map[string]*template.Template

// parseTemplates loads and parses all templates.
func parseTemplates() (TemplateCache, error) {
	cache := make(TemplateCache)

	funcMap := template.FuncMap{
		// formatVND renders a VND amount with dot separators (11.810.000).
		// Accepts float64 and models.Price alike.
		"formatVND": func(n any) string {
			return formatVND(asFloat(n))
		},
		// formatSignedVND keeps the sign for profit figures
		"formatSignedVND": func(n any) string {
			v := asFloat(n)
			if v > 0 {
				return "+" + formatVND(v)
			}
			return formatVND(v)
		},
		// formatPercent renders a percentage with two decimals
		"formatPercent": func(n float64) string {
			return strconv.FormatFloat(n, 'f', 2, 64) + "%"
		},
		"upper": strings.ToUpper,
	}

	layoutPath := filepath.Join("web", "templates", "layouts", "base.html")
	pagesGlob := filepath.Join("web", "templates", "pages", "*.html")
	pages, err := filepath.Glob(pagesGlob)
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)
		tmpl, err := template.New(filepath.Base(layoutPath)).Funcs(funcMap).ParseFiles(layoutPath, page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		cache[name] = tmpl
	}

	return cache, nil
}

// asFloat widens the numeric types the templates pass around.
func asFloat(n any) float64 {
	switch v := n.(type) {
	case float64:
		return v
	case models.Price:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// formatVND formats a VND amount with dot thousand separators.
func formatVND(n float64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	intPart := int64(n + 0.5)

	s := strconv.FormatInt(intPart, 10)
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	out := b.String() + " ₫"
	if negative {
		return "-" + out
	}
	return out
}
