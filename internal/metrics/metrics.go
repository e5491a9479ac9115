// Package metrics holds the Prometheus collectors exported on /metrics.
// Collectors are registered on the default registry at init via promauto;
// the rest of the code records through the helper functions below.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_http_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Domain
	RelationTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_toggles_total",
			Help: "Favorite, shopping cart and subscription toggles by outcome",
		},
		[]string{"kind", "action", "outcome"}, // action: add|remove; outcome: ok|conflict|not_found|invalid|error
	)

	RecipesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_written_total",
			Help: "Recipes created, updated or deleted",
		},
		[]string{"action"},
	)

	ShoppingListsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_lists_exported_total",
			Help: "Shopping lists rendered for download",
		},
	)

	IngredientsImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_ingredients_imported_total",
			Help: "Ingredient import rows by result",
		},
		[]string{"result"}, // created|duplicate|failed
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimited counts a request rejected with 429.
func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

// RecordRelationToggle counts a relation add/remove attempt.
func RecordRelationToggle(kind, action, outcome string) {
	RelationTogglesTotal.WithLabelValues(kind, action, outcome).Inc()
}

// RecordRecipeWrite counts a recipe create/update/delete.
func RecordRecipeWrite(action string) {
	RecipesWrittenTotal.WithLabelValues(action).Inc()
}

// RecordShoppingList counts one exported shopping list.
func RecordShoppingList() {
	ShoppingListsTotal.Inc()
}

// RecordIngredientImport adds import row counts by result.
func RecordIngredientImport(created, duplicates, failed int) {
	IngredientsImportedTotal.WithLabelValues("created").Add(float64(created))
	IngredientsImportedTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	IngredientsImportedTotal.WithLabelValues("failed").Add(float64(failed))
}
