package api

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/service"
)

// CashierClaims is the JWT payload issued by the user-management side of the
// POS; Name identifies who applied a correction.
type CashierClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type DraftHandler struct {
	draftService *service.DraftService
}

// NewDraftHandler creates a new instance of DraftHandler
func NewDraftHandler(draftService *service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

func keyFromRequest(c echo.Context) (entity.DraftKey, error) {
	kind := c.QueryParam("kind")
	if kind == "" {
		kind = entity.KindRoute
	}

	date, err := entity.ParseDate(c.QueryParam("date"))
	if err != nil {
		return entity.DraftKey{}, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}

	return entity.NewDraftKey(kind, c.Param("vendorId"), date), nil
}

func cashierName(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*CashierClaims)
	if !ok {
		return ""
	}
	return claims.Name
}

// GetDraft loads the draft for a vendor and date --> /drafts/:vendorId
func (h *DraftHandler) GetDraft(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}

	refresh := c.QueryParam("refresh") == "true"
	snapshot := h.draftService.Load(c.Request().Context(), key, refresh)

	return c.JSON(200, snapshot)
}

type correctionPayload struct {
	Corrections []struct {
		ItemID             string `json:"item_id"`
		NewQuantityOrdered int    `json:"new_quantity_ordered"`
	} `json:"corrections"`
}

// ApplyCorrections applies a batch of quantity edits --> /drafts/:vendorId/corrections
func (h *DraftHandler) ApplyCorrections(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}

	payload := correctionPayload{}
	if err := c.Bind(&payload); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	requests := make([]entity.CorrectionRequest, 0, len(payload.Corrections))
	for _, correction := range payload.Corrections {
		if correction.NewQuantityOrdered < 0 {
			return c.JSON(400, map[string]string{"error": "quantity must not be negative"})
		}
		requests = append(requests, entity.CorrectionRequest{
			Key:                key,
			ItemID:             correction.ItemID,
			NewQuantityOrdered: correction.NewQuantityOrdered,
		})
	}

	result := h.draftService.ApplyCorrections(c.Request().Context(), key, requests, cashierName(c))
	if result.Status == entity.CorrectionPartialFailure {
		return c.JSON(409, result)
	}

	return c.JSON(200, result)
}

// ListCorrections returns the correction history --> /drafts/:vendorId/corrections
func (h *DraftHandler) ListCorrections(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}

	entries, err := h.draftService.Corrections(c.Request().Context(), key)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, entries)
}

// PurgeDrafts removes stored drafts for a vendor --> /drafts/:vendorId
// Without a date it clears every date for the vendor and kind.
func (h *DraftHandler) PurgeDrafts(c echo.Context) error {
	kind := c.QueryParam("kind")
	if kind == "" {
		kind = entity.KindRoute
	}

	prefix := entity.KeyPrefix(kind, c.Param("vendorId"))
	if dateStr := c.QueryParam("date"); dateStr != "" {
		date, err := entity.ParseDate(dateStr)
		if err != nil {
			return c.JSON(400, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		}
		prefix = entity.NewDraftKey(kind, c.Param("vendorId"), date).String()
	}

	removed, err := h.draftService.Purge(c.Request().Context(), prefix)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]int{"removed": removed})
}
