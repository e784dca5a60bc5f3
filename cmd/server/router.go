package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"note-taker/cmd/server/handlers"
	"note-taker/cmd/server/handlers/auth"
	categoriesHandlers "note-taker/cmd/server/handlers/categories"
	"note-taker/cmd/server/handlers/handlerutil"
	"note-taker/cmd/server/handlers/httperr"
	notesHandlers "note-taker/cmd/server/handlers/notes"
	"note-taker/cmd/server/middlewares"
	"note-taker/internal/clients/mongo"
	"note-taker/internal/config"
	"note-taker/internal/logger"
	authServices "note-taker/internal/services/auth"
	categoriesServices "note-taker/internal/services/categories"
	notesServices "note-taker/internal/services/notes"

	_ "note-taker/docs" // Load swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// services is what the HTTP layer needs from the domain.
type services struct {
	auth       auth.AuthService
	notes      notesHandlers.Service
	categories categoriesHandlers.Service
}

// newServices builds the repositories on db and the services on top of them.
func newServices(ctx context.Context, cfg config.Config, db *mongodriver.Database) (services, error) {
	usersRepo, err := mongo.NewUsersRepo(ctx, db)
	if err != nil {
		return services{}, fmt.Errorf("users repository: %w", err)
	}
	categoriesRepo, err := mongo.NewCategoriesRepo(ctx, db)
	if err != nil {
		return services{}, fmt.Errorf("categories repository: %w", err)
	}
	notesRepo, err := mongo.NewNotesRepo(ctx, db)
	if err != nil {
		return services{}, fmt.Errorf("%w: %w", notesServices.ErrCreateNotesRepo, err)
	}

	categoriesSvc := categoriesServices.NewService(categoriesRepo, logger.L())
	return services{
		auth:       authServices.NewService(usersRepo, categoriesSvc, cfg, logger.L()),
		notes:      notesServices.NewService(notesRepo, categoriesSvc, logger.L()),
		categories: categoriesSvc,
	}, nil
}

// setupRouter wires the services on the initialized mongo singleton into a Fiber app
func setupRouter(ctx context.Context, cfg config.Config) (*fiber.App, error) {
	svcs, err := newServices(ctx, cfg, mongo.DB())
	if err != nil {
		return nil, err
	}
	return newApp(cfg, svcs)
}

// newApp configures and returns a Fiber app with all routes
func newApp(cfg config.Config, svcs services) (*fiber.App, error) {
	v, err := handlerutil.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	// Validate JWT algorithm at boot
	if alg := strings.ToUpper(cfg.JWTAlgorithm); alg != "HS256" {
		return nil, fmt.Errorf("%w: %s", authServices.ErrUnsupportedAlgorithm, cfg.JWTAlgorithm)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz)

	app.Get("/docs/*", swagger.HandlerDefault)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	authHandlers := auth.NewHandlers(svcs.auth, v)
	authGrp := v1.Group("/auth", middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration))
	authGrp.Post("/sign-up", authHandlers.SignUp)
	authGrp.Post("/sign-in", authHandlers.SignIn)

	v1.Get("/me", jwtMiddleware, authHandlers.Me)

	categoriesH := categoriesHandlers.NewHandlers(svcs.categories, v)
	categoriesGrp := v1.Group("/categories", jwtMiddleware)
	categoriesGrp.Get("/", categoriesH.List)
	categoriesGrp.Post("/", categoriesH.Create)
	categoriesGrp.Patch("/:id", categoriesH.Update)
	categoriesGrp.Delete("/:id", categoriesH.Delete)
	categoriesGrp.Post("/:id/delete-with-notes", categoriesH.DeleteWithNotes)
	categoriesGrp.Post("/:id/move-notes-and-delete", categoriesH.MoveNotesAndDelete)

	notesH := notesHandlers.NewHandlers(svcs.notes, v)
	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Post("/bulk-move", notesH.BulkMove)
	notesGrp.Patch("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Delete)

	return app, nil
}
