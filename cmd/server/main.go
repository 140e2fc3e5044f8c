package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soulbalance/internal/auth"
	"soulbalance/internal/cache"
	"soulbalance/internal/config"
	"soulbalance/internal/data"
	"soulbalance/internal/handler"
	"soulbalance/internal/logger"
	"soulbalance/internal/media"
	"soulbalance/internal/middleware"
	"soulbalance/internal/notify"
	"soulbalance/internal/service"
	"soulbalance/internal/view"
	"soulbalance/web"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Session Management Setup ---
	sessionManager := newSessionManager(cfg, db)

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)

	var sso handler.SSOProvider
	if cfg.OIDC.Enabled() {
		authenticator, err := auth.NewAuthenticator(context.Background(), cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
		sso = authenticator
		log.Info("Single sign-on enabled.")
	}
	log.Info("Auth components initialized and policies seeded.")

	// --- Cache Initialization ---
	log.Info(fmt.Sprintf("Initializing %s cache...", cfg.Cache.Driver))
	store, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer store.Close()
	log.Info("Cache initialized.")

	// --- Upload Storage ---
	storage, uploadDir, err := newStorage(context.Background(), cfg.Upload)
	if err != nil {
		log.Fatal(err, "Failed to initialize upload storage")
	}
	uploader := media.NewUploader(storage, cfg.Upload.MaxBytes)

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS, template.FuncMap{"imageURL": uploader.URL})
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	categories := make([]string, 0, len(cfg.Blog.Categories))
	for _, c := range cfg.Blog.Categories {
		categories = append(categories, c.Name)
	}
	viewService.SetDefaults(view.SiteDefaults(
		view.Site{Name: cfg.Blog.SiteName, Categories: categories},
		handler.TemplateDefaults(),
	))
	log.Info("View templates initialized.")

	// --- Notifications ---
	var notifier service.Notifier
	if mailer := notify.NewMailer(cfg.SMTP); mailer != nil {
		notifier = mailer
	} else {
		log.Warn("SMTP not configured; contact messages are stored but not mailed.")
	}

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	postRepository := data.NewSQLPostRepository(db)
	commentRepository := data.NewCommentRepository(db)
	ratingRepository := data.NewRatingRepository(db)
	userRepository := data.NewUserRepository(db)
	contactRepository := data.NewContactRepository(db)

	postService := service.NewPostService(postRepository, uploader, log, cfg.Blog.PageSize)
	commentService := service.NewCommentService(commentRepository, postRepository)
	ratingService := service.NewRatingService(ratingRepository, postRepository, store,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
	userService := service.NewUserService(userRepository)
	contactService := service.NewContactService(contactRepository, notifier, log)

	maxUpload := uploader.MaxBytes()
	handlers := handler.Handlers{
		Blog: handler.NewBlogHandler(postService, commentService, ratingService, viewService,
			sessionManager, log, categories, maxUpload),
		Auth:        handler.NewAuthHandler(userService, sessionManager, viewService, sso, log),
		API:         handler.NewAPIHandler(postService, log, maxUpload),
		Interaction: handler.NewInteractionHandler(commentService, ratingService, log),
		Site:        handler.NewSiteHandler(contactService, viewService, sessionManager, cfg.Blog.Categories),
		Seo:         handler.NewSeoHandler(postService, cfg.Server.BaseURL, categories, log),
	}

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		log.Fatal(err, "Failed to open static assets")
	}

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(handlers, handler.RouterOptions{
		Log:            log,
		Session:        sessionManager,
		Authz:          middleware.Authorizer(enforcer, log),
		ErrorHandler:   middleware.Error(log, viewService),
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Static:         staticFS,
		UploadDir:      uploadDir,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// newSessionManager stores sessions in the application database.
func newSessionManager(cfg *config.Config, db *sqlx.DB) *scs.SessionManager {
	sessionManager := scs.New()
	if cfg.DB.Driver == "mysql" {
		sessionManager.Store = mysqlstore.New(db.DB)
	} else {
		sessionManager.Store = sqlite3store.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled
	return sessionManager
}

// newStorage returns the configured image storage and, for local storage,
// the directory to serve uploads from.
func newStorage(ctx context.Context, cfg config.UploadConfig) (media.Storage, string, error) {
	switch cfg.Storage {
	case "", "local":
		local, err := media.NewLocalStorage(cfg.Dir)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir, nil
	case "s3":
		s3, err := media.NewS3Storage(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		return nil, "", fmt.Errorf("unknown upload storage %q", cfg.Storage)
	}
}
