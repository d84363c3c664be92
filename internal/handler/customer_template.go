package handler

import (
	"log"      // fallback diagnostics when the recommender is down
	"net/http" // HTTP status codes
	"strconv"  // query parameter parsing

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loyalty-coupon-book/internal/curation"   // recommender request types
	"github.com/iliyamo/loyalty-coupon-book/internal/repository" // repository layer
)

// templateView renders one active template with its live capacity
// projection.  remaining_capacity is null for unlimited campaigns.
func templateView(t *repository.ActiveTemplate) echo.Map {
	return echo.Map{
		"id":                 t.ID,
		"place_id":           t.PlaceID,
		"image_url":          t.ImageURL,
		"valid_until":        t.ValidUntil,
		"first_n_persons":    t.FirstNPersons,
		"reward":             t.Reward,
		"required_stamps":    t.RewardAmount,
		"issued":             t.Issued,
		"remaining_capacity": repository.RemainingCapacity(t.FirstNPersons, t.Issued),
		"created_at":         t.CreatedAt,
	}
}

// ListTemplates handles GET /v1/templates.  It returns every template
// satisfying the shared active predicate, optionally narrowed by
// ?place_id= and ?exclude_owned=true (drop templates the caller's book
// has already claimed).
func (h *CustomerHandler) ListTemplates(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	var filter repository.TemplateFilter
	if raw := c.QueryParam("place_id"); raw != "" {
		placeID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || placeID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid place_id"})
		}
		filter.PlaceID = placeID
	}
	if c.QueryParam("exclude_owned") == "true" {
		book, err := h.Books.GetByUser(ctx, userID)
		if err != nil {
			return writeRepoError(c, err, "coupon book not found")
		}
		filter.ExcludeBookID = book.ID
	}

	templates, err := h.Templates.ListActive(ctx, filter)
	if err != nil {
		return writeRepoError(c, err, "templates not found")
	}
	out := make([]echo.Map, 0, len(templates))
	for i := range templates {
		out = append(out, templateView(&templates[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": out})
}

// Curation handles GET /v1/curation.  The candidate set is computed
// here (active templates the caller has not claimed); the external
// recommender only orders it.  When the recommender is unreachable or
// misbehaves the unranked candidates are returned, so the endpoint
// degrades instead of failing.
func (h *CustomerHandler) Curation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	book, err := h.Books.GetByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	candidates, err := h.Templates.ListActive(ctx, repository.TemplateFilter{ExcludeBookID: book.ID})
	if err != nil {
		return writeRepoError(c, err, "templates not found")
	}
	byID := make(map[uint64]*repository.ActiveTemplate, len(candidates))
	candidateIDs := make([]uint64, 0, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
		candidateIDs = append(candidateIDs, candidates[i].ID)
	}

	owned, err := h.Coupons.ListByBook(ctx, book.ID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}

	ranked, err := h.Recommender.Rank(ctx, curation.Request{
		CustomerID:   userID,
		Owned:        ownedHistory(owned),
		CandidateIDs: candidateIDs,
	})
	if err != nil {
		log.Printf("curation: rank failed, serving unranked candidates: %v", err)
		ranked = candidateIDs
	}

	out := make([]echo.Map, 0, len(ranked))
	for _, id := range ranked {
		if t, ok := byID[id]; ok {
			out = append(out, templateView(t))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": out})
}

// ownedHistory converts coupon details into the usage summary the
// recommender learns from.
func ownedHistory(owned []repository.CouponDetail) []curation.OwnedCoupon {
	out := make([]curation.OwnedCoupon, 0, len(owned))
	for _, d := range owned {
		out = append(out, curation.OwnedCoupon{
			TemplateID: d.TemplateID,
			PlaceID:    d.PlaceID,
			StampCount: d.StampCount,
			Completed:  d.RewardAmount > 0 && d.StampCount >= d.RewardAmount,
		})
	}
	return out
}
