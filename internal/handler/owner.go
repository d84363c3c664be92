package handler

import (
	"net/http" // HTTP status codes
	"strings"  // trimming inputs
	"time"     // valid_until parsing

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loyalty-coupon-book/internal/model"      // domain models
	"github.com/iliyamo/loyalty-coupon-book/internal/repository" // repository layer
)

// OwnerHandler bundles the repositories a merchant needs to run
// campaigns: places, coupon templates and the receipt registrar.  All
// methods assume JWT authentication and the OWNER role have been
// enforced by middleware.
type OwnerHandler struct {
	Places    *repository.PlaceRepo    // place persistence and ownership lookups
	Templates *repository.TemplateRepo // template lifecycle and statistics
	Receipts  *repository.ReceiptRepo  // receipt token registrar
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any dependency is nil
func NewOwnerHandler(places *repository.PlaceRepo, templates *repository.TemplateRepo, receipts *repository.ReceiptRepo) *OwnerHandler {
	if places == nil || templates == nil || receipts == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Places: places, Templates: templates, Receipts: receipts}
}

// placeReq is the body of POST /v1/owner/places.
type placeReq struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// CreatePlace handles POST /v1/owner/places.  Places anchor templates
// to a merchant; the service stores the image URL as an opaque string.
func (h *OwnerHandler) CreatePlace(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req placeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	p := &model.Place{OwnerID: ownerID, Name: req.Name, ImageURL: req.ImageURL}
	if err := h.Places.Create(c.Request().Context(), p); err != nil {
		return writeRepoError(c, err, "place not found")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         p.ID,
		"owner_id":   p.OwnerID,
		"name":       p.Name,
		"image_url":  p.ImageURL,
		"created_at": p.CreatedAt,
	})
}

// ListPlaces handles GET /v1/owner/places.
func (h *OwnerHandler) ListPlaces(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	places, err := h.Places.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err, "places not found")
	}
	out := make([]echo.Map, 0, len(places))
	for _, p := range places {
		out = append(out, echo.Map{
			"id":         p.ID,
			"owner_id":   p.OwnerID,
			"name":       p.Name,
			"image_url":  p.ImageURL,
			"created_at": p.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"places": out})
}

// rewardReq is the inline reward definition of a template.  Every
// template must be created with one; a coupon without a reward rule
// could never complete.
type rewardReq struct {
	Amount uint32 `json:"amount"`
	Reward string `json:"reward"`
}

// templateReq is the body of POST /v1/owner/templates.  ValidUntil is
// RFC3339; absent means the campaign never expires.  FirstNPersons of 0
// means unlimited capacity.
type templateReq struct {
	PlaceID       uint64     `json:"place_id"`
	ValidUntil    *time.Time `json:"valid_until"`
	FirstNPersons uint32     `json:"first_n_persons"`
	ImageURL      string     `json:"image_url"`
	IsOn          bool       `json:"is_on"`
	Reward        *rewardReq `json:"reward"`
}

// CreateTemplate handles POST /v1/owner/templates.  The template and
// its reward info are written in one transaction; a missing reward or
// an amount below one is rejected before anything is stored.  The
// target place must belong to the caller.
func (h *OwnerHandler) CreateTemplate(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req templateReq
	if err := c.Bind(&req); err != nil || req.PlaceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "place_id required"})
	}
	ctx := c.Request().Context()

	place, err := h.Places.GetByID(ctx, req.PlaceID)
	if err != nil {
		return writeRepoError(c, err, "place not found")
	}
	if place.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	t := &model.CouponTemplate{
		PlaceID:       req.PlaceID,
		ValidUntil:    req.ValidUntil,
		FirstNPersons: req.FirstNPersons,
		ImageURL:      req.ImageURL,
		IsOn:          req.IsOn,
	}
	var reward *model.RewardInfo
	if req.Reward != nil {
		reward = &model.RewardInfo{Amount: req.Reward.Amount, Reward: req.Reward.Reward}
	}
	if err := h.Templates.CreateWithReward(ctx, t, reward); err != nil {
		return writeRepoError(c, err, "place not found")
	}
	resp := echo.Map{
		"id":              t.ID,
		"place_id":        t.PlaceID,
		"valid_until":     t.ValidUntil,
		"first_n_persons": t.FirstNPersons,
		"image_url":       t.ImageURL,
		"is_on":           t.IsOn,
		"created_at":      t.CreatedAt,
		"reward": echo.Map{
			"amount": reward.Amount,
			"reward": reward.Reward,
		},
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetTemplate handles GET /v1/owner/templates/:id.  It returns the
// template with live campaign statistics: issued coupons, remaining
// capacity, favorite saves and accrued stamps.  All four figures are
// computed from the base tables on every call.
func (h *OwnerHandler) GetTemplate(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
	}
	ctx := c.Request().Context()
	if err := h.requireTemplateOwner(c, templateID, ownerID); err != nil {
		return err
	}
	rec, err := h.Templates.GetByID(ctx, templateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	issued, err := h.Templates.IssuedCount(ctx, templateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	saves, err := h.Templates.SavedCount(ctx, templateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	uses, err := h.Templates.UsedStampCount(ctx, templateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":                 rec.ID,
		"place_id":           rec.PlaceID,
		"valid_until":        rec.ValidUntil,
		"first_n_persons":    rec.FirstNPersons,
		"image_url":          rec.ImageURL,
		"is_on":              rec.IsOn,
		"created_at":         rec.CreatedAt,
		"reward":             rec.Reward,
		"required_stamps":    rec.RewardAmount,
		"issued":             issued,
		"remaining_capacity": repository.RemainingCapacity(rec.FirstNPersons, issued),
		"saves":              saves,
		"uses":               uses,
	})
}

// stateReq is the body of PATCH /v1/owner/templates/:id/state.
type stateReq struct {
	IsOn *bool `json:"is_on"`
}

// SetTemplateState handles PATCH /v1/owner/templates/:id/state.  It
// toggles the publication flag.  Switching a template off immediately
// removes it from listings and blocks issuance and accrual.
func (h *OwnerHandler) SetTemplateState(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
	}
	var req stateReq
	if err := c.Bind(&req); err != nil || req.IsOn == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_on required"})
	}
	if err := h.requireTemplateOwner(c, templateID, ownerID); err != nil {
		return err
	}
	if err := h.Templates.SetOn(c.Request().Context(), templateID, *req.IsOn); err != nil {
		return writeRepoError(c, err, "template not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": templateID, "is_on": *req.IsOn})
}

// DeleteTemplate handles DELETE /v1/owner/templates/:id.  The cascade
// removes stamps, favorites, coupons and the reward info together with
// the template in one transaction.
func (h *OwnerHandler) DeleteTemplate(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
	}
	if err := h.requireTemplateOwner(c, templateID, ownerID); err != nil {
		return err
	}
	if err := h.Templates.DeleteCascade(c.Request().Context(), templateID); err != nil {
		return writeRepoError(c, err, "template not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// requireTemplateOwner verifies the template's place belongs to the
// caller.  It writes the error response itself and returns it, so
// callers can simply `return` on a non-nil result.
func (h *OwnerHandler) requireTemplateOwner(c echo.Context, templateID, ownerID uint64) error {
	actual, err := h.Templates.OwnerID(c.Request().Context(), templateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	if actual != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return nil
}

// receiptReq is the body of POST /v1/owner/receipts.  Token is optional;
// when absent the registrar mints a UUID.
type receiptReq struct {
	Token string `json:"token"`
}

// RegisterReceipt handles POST /v1/owner/receipts.  It registers a
// proof-of-purchase token that customers can later accrue a stamp with.
// Registering the same token twice returns 409.
func (h *OwnerHandler) RegisterReceipt(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req receiptReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Receipts.Register(c.Request().Context(), strings.TrimSpace(req.Token))
	if err != nil {
		return writeRepoError(c, err, "receipt not found")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"token":      rec.Token,
		"created_at": rec.CreatedAt,
	})
}
