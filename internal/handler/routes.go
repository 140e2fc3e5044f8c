package handler

import (
	"io/fs"
	"net/http"

	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/session"
	"soulbalance/internal/view"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Blog        *BlogHandler
	Auth        *AuthHandler
	API         *APIHandler
	Interaction *InteractionHandler
	Site        *SiteHandler
	Seo         *SeoHandler
}

// RouterOptions holds the middleware and assets shared by every route.
type RouterOptions struct {
	Log            logger.Logger
	Session        session.Manager
	Authz          func(http.Handler) http.Handler
	ErrorHandler   func(middleware.AppHandler) http.Handler
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Static         fs.FS
	// UploadDir is served under /uploads/blogs/ when images are stored locally.
	UploadDir string
	// TrustProxy rewrites RemoteAddr from forwarding headers.
	TrustProxy bool
}

// TemplateDefaults exposes the current user and flash message to every template.
func TemplateDefaults() view.DefaultsFunc {
	return func(r *http.Request) map[string]interface{} {
		return map[string]interface{}{
			"CurrentUser": middleware.GetUserInfo(r.Context()),
			"Flash":       middleware.GetFlash(r.Context()),
		}
	}
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	appHandler := opts.ErrorHandler
	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limited = opts.RateLimiter.Limit
	}

	// SEO and assets need no session.
	r.Get("/robots.txt", h.Seo.robotsHandler)
	r.Get("/sitemap.xml", h.Seo.sitemapHandler)
	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}
	if opts.UploadDir != "" {
		r.Handle("/uploads/blogs/*", http.StripPrefix("/uploads/blogs/", http.FileServer(http.Dir(opts.UploadDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(opts.Session.LoadAndSave)
		r.Use(middleware.Authenticate(opts.Session))
		r.Use(middleware.Flash(opts.Session))
		r.Use(opts.Authz)

		// Pages
		r.Method(http.MethodGet, "/", appHandler(h.Blog.handleHome))
		r.Method(http.MethodGet, "/blogs", appHandler(h.Blog.handleLatest))
		r.Method(http.MethodGet, "/categories", appHandler(h.Site.handleCategories))
		r.Method(http.MethodGet, "/category/{name}", appHandler(h.Blog.handleCategory))
		r.Method(http.MethodGet, "/blog/{id}", appHandler(h.Blog.handleView))
		r.Method(http.MethodGet, "/about", appHandler(h.Site.handleAbout))
		r.Method(http.MethodGet, "/contact", appHandler(h.Site.handleContactPage))
		r.With(limited).Method(http.MethodPost, "/contact", appHandler(h.Site.handleContact))

		// Authentication
		r.Method(http.MethodGet, "/login", appHandler(h.Auth.handleLoginPage))
		r.With(limited).Method(http.MethodPost, "/login", appHandler(h.Auth.handleLogin))
		r.Method(http.MethodGet, "/register", appHandler(h.Auth.handleRegisterPage))
		r.With(limited).Method(http.MethodPost, "/register", appHandler(h.Auth.handleRegister))
		r.Post("/logout", h.Auth.handleLogout)
		r.Method(http.MethodGet, "/auth/sso/login", appHandler(h.Auth.handleSSOLogin))
		r.Method(http.MethodGet, "/auth/sso/callback", appHandler(h.Auth.handleSSOCallback))

		// Post management
		r.Method(http.MethodGet, "/dashboard", appHandler(h.Blog.handleDashboard))
		r.Method(http.MethodGet, "/blogs/new", appHandler(h.Blog.handleNewForm))
		r.Method(http.MethodPost, "/blogs/new", appHandler(h.Blog.handleCreate))
		r.Method(http.MethodGet, "/blog/{id}/edit", appHandler(h.Blog.handleEditForm))
		r.Method(http.MethodPost, "/blog/{id}/edit", appHandler(h.Blog.handleUpdate))
		r.Method(http.MethodPost, "/blog/{id}/delete", appHandler(h.Blog.handleDelete))

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.With(limited).Post("/auth/login", h.Auth.handleAPILogin)
			r.With(limited).Post("/auth/register", h.Auth.handleAPIRegister)
			r.With(limited).Post("/auth/logout", h.Auth.handleAPILogout)

			r.Get("/blogs", h.API.handleList)
			r.Post("/blogs", h.API.handleCreate)
			r.Get("/blogs/{id}", h.API.handleGet)
			r.Put("/blogs/{id}", h.API.handleUpdate)
			r.Post("/blogs/{id}", h.API.handleUpdate)
			r.Delete("/blogs/{id}", h.API.handleDelete)

			r.HandleFunc("/blog-interactions", h.Interaction.handleInteraction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		appHandler(func(http.ResponseWriter, *http.Request) *middleware.AppError {
			return &middleware.AppError{Message: "Page not found", Code: http.StatusNotFound}
		}).ServeHTTP(w, req)
	})

	return r
}
