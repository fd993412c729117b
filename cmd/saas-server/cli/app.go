package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/server/auth"
	"github.com/yangtinglin69/saas/internal/server/blog"
	"github.com/yangtinglin69/saas/internal/server/catalog"
	"github.com/yangtinglin69/saas/internal/server/composer"
	"github.com/yangtinglin69/saas/internal/server/config"
	"github.com/yangtinglin69/saas/internal/server/errorpages"
	"github.com/yangtinglin69/saas/internal/server/hostrouter"
	"github.com/yangtinglin69/saas/internal/server/importer"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/site"
	"github.com/yangtinglin69/saas/internal/server/sitemap"
	"github.com/yangtinglin69/saas/internal/server/tenant"
	"github.com/yangtinglin69/saas/internal/server/web/api"
	"github.com/yangtinglin69/saas/internal/server/web/middleware"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// application holds the services shared by the commands.
type application struct {
	cfg      *config.Config
	db       *gorm.DB
	services api.Services
}

// loadConfig loads the config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Setup(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return cfg, nil
}

// openDatabase connects and migrates.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	logger.InfoEvent().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Database).
		Msg("Connecting to database")

	database, err := db.Connect(db.Config{
		Driver:      cfg.Database.Driver,
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		SSLMode:     cfg.Database.SSLMode,
		SQLLogLevel: cfg.Database.SQLLogLevel,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.InfoEvent().Msg("Database migrations completed")
	return database, nil
}

func newApplication(cfg *config.Config, database *gorm.DB) *application {
	registry := modules.NewRegistry()
	store := modules.NewStore(database, registry)
	directory := tenant.NewDirectory(database, store, cfg.Server.StripWWW)
	products := catalog.NewService(database)
	posts := blog.NewService(database)

	pageComposer := composer.New(directory, store, products, registry, composer.Options{
		ReadTimeout:      cfg.Composer.ReadTimeout,
		DefaultShowCount: cfg.Composer.DefaultShowCount,
	})
	generator := sitemap.NewGenerator(products, posts, sitemap.Options{
		Scheme:    cfg.Sitemap.Scheme,
		GroupSize: cfg.Sitemap.GroupSize,
	})

	return &application{
		cfg: cfg,
		db:  database,
		services: api.Services{
			Users:    auth.NewUserService(database, nil),
			Keys:     auth.NewAPIKeyService(database),
			Tenants:  directory,
			Modules:  store,
			Catalog:  products,
			Posts:    posts,
			Composer: pageComposer,
			Sitemap:  generator,
			Importer: importer.New(products, store),
		},
	}
}

// ensureAdmin creates the configured admin account on first start.
func (a *application) ensureAdmin(ctx context.Context) error {
	user, created, err := a.services.Users.EnsureUser(ctx, a.cfg.Auth.AdminUsername, a.cfg.Auth.AdminPassword, "Administrator")
	if err != nil {
		return fmt.Errorf("failed to initialize admin user: %w", err)
	}
	if !created {
		logger.InfoEvent().
			Str("email", user.Email).
			Msg("Admin user exists")
	}
	return nil
}

// handler builds the root HTTP handler. Admin hosts reach the JSON API and
// the /site/{host} preview tree; tenant hosts are rewritten onto that tree.
func (a *application) handler() http.Handler {
	apiHandler := api.NewHandler(a.services, a.cfg)
	adminMux := http.NewServeMux()
	apiHandler.RegisterRoutes(adminMux)
	admin := apiHandler.CORSMiddleware(middleware.SecurityHeaders(adminMux))

	pages := site.NewHandler(a.services.Composer, a.services.Catalog, a.services.Posts, a.services.Sitemap)
	siteMux := http.NewServeMux()
	pages.Register(siteMux)
	tenantPages := middleware.SiteSecurityHeaders(siteMux)

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, hostrouter.SitePrefix) {
			tenantPages.ServeHTTP(w, r)
			return
		}
		admin.ServeHTTP(w, r)
	})

	router := hostrouter.NewRouter(a.cfg.Server.AdminDomains, a.cfg.Server.StripWWW)
	router.NotFound = errorpages.NotFoundHandler()

	return middleware.HTTPLoggerWithLevel(router.Middleware(root), a.cfg.Logging.Level)
}
