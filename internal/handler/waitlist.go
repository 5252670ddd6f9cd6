package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dunskii/booking-waitlist/internal/model"
	"github.com/dunskii/booking-waitlist/internal/offer"
	"github.com/dunskii/booking-waitlist/internal/repository"
)

// WaitlistHandler exposes the claimant-facing waitlist lifecycle:
// joining a queue, inspecting an entry, cancelling it and responding
// to an outstanding offer.  Every mutating call is authorised by a
// per-entry token rather than a session.
type WaitlistHandler struct {
	Entries *repository.WaitlistRepo
	Coord   *offer.Coordinator
}

func NewWaitlistHandler(entries *repository.WaitlistRepo, coord *offer.Coordinator) *WaitlistHandler {
	return &WaitlistHandler{Entries: entries, Coord: coord}
}

// ----- DTOs -----

type joinReq struct {
	ResourceID uint64  `json:"resource_id"`
	ServiceID  uint64  `json:"service_id"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Time       string  `json:"time"` // HH:MM
	CustomerID *uint64 `json:"customer_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
}

type entryResp struct {
	ID             uint64  `json:"id"`
	ResourceID     uint64  `json:"resource_id"`
	ServiceID      uint64  `json:"service_id"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Status         string  `json:"status"`
	OfferExpiresAt *string `json:"offer_expires_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type respondReq struct {
	Action string `json:"action"` // accept | decline
	Token  string `json:"token"`  // offer token from the notification
}

type slotFreedReq struct {
	ResourceID uint64 `json:"resource_id"`
	ServiceID  uint64 `json:"service_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

func toEntryResp(e *model.WaitlistEntry) entryResp {
	r := entryResp{
		ID:         e.ID,
		ResourceID: e.ResourceID,
		ServiceID:  e.ServiceID,
		Date:       e.Date.Format("2006-01-02"),
		Time:       e.Time.Short(),
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if e.OfferExpiresAt != nil {
		s := e.OfferExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
		r.OfferExpiresAt = &s
	}
	return r
}

// Join adds a claimant to the queue for a slot.
// POST /v1/waitlist
func (h *WaitlistHandler) Join(c echo.Context) error {
	var req joinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ResourceID == 0 || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id/service_id required"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slot, ok := parseClock(req.Time)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}

	e := &model.WaitlistEntry{
		ResourceID: req.ResourceID,
		ServiceID:  req.ServiceID,
		Date:       date,
		Time:       slot,
		CustomerID: req.CustomerID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
	}
	if !e.HasContact() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id, email or phone required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Entries.Enqueue(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enqueue failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"entry":        toEntryResp(e),
		"manage_token": e.ManageToken,
	})
}

// Get returns an entry's current state to its claimant.
// GET /v1/waitlist/:id?token=<manage_token>
func (h *WaitlistHandler) Get(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	token := c.QueryParam("token")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	e, err := h.Entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if token == "" || e.ManageToken != token {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
	}
	return c.JSON(http.StatusOK, toEntryResp(e))
}

// Cancel withdraws an entry from its queue.  Cancelling while OFFERED
// also moves the offer on to the next claimant.
// DELETE /v1/waitlist/:id?token=<manage_token>
func (h *WaitlistHandler) Cancel(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err := h.Coord.Cancel(ctx, id, token)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
	case errors.Is(err, offer.ErrNoLongerAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "entry already settled"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

// Respond accepts or declines an outstanding offer.
// POST /v1/waitlist/:id/respond
func (h *WaitlistHandler) Respond(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req respondReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "accept":
		bookingID, err := h.Coord.Accept(ctx, id, req.Token)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ACCEPTED", "booking_id": bookingID})
	case "decline":
		if err := h.Coord.Decline(ctx, id, req.Token); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "DECLINED"})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be accept or decline"})
	}
}

// SlotFreed ingests a slot-freed event from the booking system and
// triggers the offer cascade.  Administrative endpoint.
// POST /v1/slot-freed
func (h *WaitlistHandler) SlotFreed(c echo.Context) error {
	var req slotFreedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ResourceID == 0 || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id/service_id required"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slot, ok := parseClock(req.Time)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}

	// The cascade may walk several entries; give it more room than a
	// single query.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	key := model.QueueKey{ResourceID: req.ResourceID, ServiceID: req.ServiceID, Date: date, Time: slot}
	if err := h.Coord.SlotFreed(ctx, key); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "slot-freed processing failed"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "processed"})
}

// respondError maps coordinator errors onto HTTP statuses.  A failed
// booking after a won accept is reported as 502 so the caller knows
// the acceptance itself stood.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
	case errors.Is(err, offer.ErrBookingFailed):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "accepted but booking creation failed"})
	case errors.Is(err, offer.ErrNoLongerAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "offer no longer available"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
}
