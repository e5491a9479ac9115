package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodgram/foodgram/internal/middleware"
	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/plugins/ingredients"
	"github.com/foodgram/foodgram/internal/plugins/media"
	"github.com/foodgram/foodgram/internal/plugins/recipes"
	"github.com/foodgram/foodgram/internal/plugins/subscriptions"
	"github.com/foodgram/foodgram/internal/validation"
	"github.com/foodgram/foodgram/internal/widgets/relations"
	"github.com/foodgram/foodgram/internal/widgets/tags"
)

// RegisterRoutes wires every plugin and registers its routes. This is the
// single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config
	validator := validation.New()

	// --- Shared widgets ---
	rels := relations.NewRelationRepository(a.DB)
	tagService := tags.NewTagService(tags.NewTagRepository(a.DB))

	// --- Plugins ---
	userService := auth.NewUserService(auth.NewUserRepository(a.DB), rels, a.Redis, cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	ingredientService := ingredients.NewIngredientService(ingredients.NewIngredientRepository(a.DB))
	images := media.NewImageStore(cfg.Upload)

	recipeRepo := recipes.NewRecipeRepository(a.DB)
	recipeService := recipes.NewRecipeService(recipeRepo, tagService, ingredientService, userService, rels, images)
	shoppingLists := recipes.NewShoppingListService(recipeRepo, userService)

	subscriptionService := subscriptions.NewSubscriptionService(
		subscriptions.NewSubscriptionRepository(a.DB), userService, recipeService, rels)

	// --- Operational routes ---
	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	media.RegisterRoutes(e, media.NewHandler(cfg.Upload.MediaPath), cfg.Upload.MediaURL)

	// --- API ---
	// Authenticate resolves the token if one is sent; each route decides
	// whether a viewer is required.
	api := e.Group("/api", auth.Authenticate(userService))
	throttle := middleware.RateLimit(a.authLimiter)

	auth.RegisterRoutes(api, auth.NewHandler(userService, validator, cfg.Pagination, cfg.BaseURL), throttle)
	subscriptions.RegisterRoutes(api, subscriptions.NewHandler(subscriptionService, cfg.Pagination, cfg.BaseURL))
	tags.RegisterRoutes(api, tags.NewHandler(tagService, validator))
	ingredients.RegisterRoutes(api, ingredients.NewHandler(ingredientService, validator))
	recipes.RegisterRoutes(api, recipes.NewHandler(recipeService, shoppingLists, validator, cfg.Pagination, cfg.BaseURL))
}

// healthz reports whether MariaDB and Redis answer a ping.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["database"] = err.Error()
		status["status"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
		status["status"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
