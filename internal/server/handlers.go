package server

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"trendscout/config"
	"trendscout/internal/cache"
	"trendscout/internal/engine"
	"trendscout/internal/selector"
	"trendscout/internal/store"
	"trendscout/internal/taxonomy"
	"trendscout/models"
)

// TrendsHandler exposes trend synthesis and cache lookups.
type TrendsHandler struct {
	Engine   *engine.TrendEngine
	Cache    cache.TrendCache
	Taxonomy *taxonomy.Loader
	Policy   config.PolicyConfig
}

func (h *TrendsHandler) Register(g *echo.Group) {
	g.POST("/generate", h.generate)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *TrendsHandler) generate(c echo.Context) error {
	var req struct {
		ExcludedTopics []string `json:"excluded_topics"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	trends, err := h.generateOnce(c.Request().Context(), req.ExcludedTopics)
	if err != nil {
		switch {
		case errors.Is(err, errTaxonomyNotReady):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, models.ErrCategoryNotFound), errors.Is(err, models.ErrTopicsExhausted):
			// Selection errors surface verbatim.
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, engine.ErrTrendsNotPersisted):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"trends": trends})
}

var errTaxonomyNotReady = errors.New("taxonomy not ready")

// generateOnce runs selection plus synthesis. Shared by the HTTP entry point
// and the cron scheduler.
func (h *TrendsHandler) generateOnce(ctx context.Context, excluded []string) ([]models.Trend, error) {
	tax := h.Taxonomy.Load(ctx)
	if tax.Empty() {
		return nil, errTaxonomyNotReady
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sel, err := selector.Select(tax, h.Policy, excluded, rng)
	if err != nil {
		return nil, err
	}
	return h.Engine.Synthesize(ctx, sel.NumTrends, sel.Category, sel.Subcategory, sel.Topics, sel.URLs, excluded)
}

func (h *TrendsHandler) list(c echo.Context) error {
	trends, err := h.Cache.All(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, trends)
}

func (h *TrendsHandler) get(c echo.Context) error {
	trend, ok, err := h.Cache.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trend not found")
	}
	return c.JSON(http.StatusOK, trend)
}

// ScoutHandler exposes scouting missions.
type ScoutHandler struct {
	Scout *engine.ScoutAgent
	Store *store.Store
}

func (h *ScoutHandler) Register(g *echo.Group) {
	g.POST("", h.run)
}

func (h *ScoutHandler) run(c echo.Context) error {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := c.Bind(&req); err != nil || req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic required")
	}

	sessionID, err := h.Scout.RunScout(c.Request().Context(), req.Topic)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"session_id": sessionID})
}

// SessionsHandler exposes persisted scouting output.
type SessionsHandler struct {
	Store *store.Store
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.GET("/:id", h.get)
	g.GET("/:id/articles", h.articles)
	g.POST("/:id/done", h.done)
}

func (h *SessionsHandler) get(c echo.Context) error {
	sess, err := h.Store.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) articles(c echo.Context) error {
	articles, err := h.Store.ListArticlesBySession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, articles)
}

func (h *SessionsHandler) done(c echo.Context) error {
	if err := h.Store.UpdateSessionStatus(c.Request().Context(), c.Param("id"), models.SessionStatusDone); err != nil {
		log.Printf("update session status error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
