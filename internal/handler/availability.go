package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dunskii/booking-waitlist/internal/availability"
)

// AvailabilityHandler answers public availability queries against the
// block store via the oracle.
type AvailabilityHandler struct {
	Oracle *availability.Oracle
}

func NewAvailabilityHandler(o *availability.Oracle) *AvailabilityHandler {
	return &AvailabilityHandler{Oracle: o}
}

type blockedPart struct {
	BlockID uint64 `json:"block_id"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
}
type availabilityResp struct {
	Available bool         `json:"available"`
	Blocked   *blockedPart `json:"blocked_by,omitempty"`
}

// Check reports whether a slot is open for booking.
// GET /v1/availability?resource_id=1&date=2026-09-01&time=09:00
// Omitting time asks whether the whole date is closed by an all-day
// block; a date blocked only at certain times still reads available.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	resourceID, ok := queryUint(c, "resource_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id required"})
	}
	date, ok := parseDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if raw := c.QueryParam("time"); raw != "" {
		t, ok := parseClock(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
		}
		blk, err := h.Oracle.FindActiveBlock(ctx, resourceID, date, t)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
		}
		resp := availabilityResp{Available: blk == nil}
		if blk != nil {
			resp.Blocked = &blockedPart{BlockID: blk.ID, Kind: string(blk.Kind), Reason: blk.Reason}
		}
		return c.JSON(http.StatusOK, resp)
	}

	closed, err := h.Oracle.IsDateFullyBlocked(ctx, resourceID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	return c.JSON(http.StatusOK, availabilityResp{Available: !closed})
}
