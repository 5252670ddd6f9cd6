package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dunskii/booking-waitlist/internal/model"
	"github.com/dunskii/booking-waitlist/internal/repository"
)

// BlockHandler exposes administrative CRUD over availability blocks.
type BlockHandler struct {
	Blocks *repository.BlockRepo
}

func NewBlockHandler(b *repository.BlockRepo) *BlockHandler {
	return &BlockHandler{Blocks: b}
}

// ----- DTOs -----

type blockReq struct {
	ResourceID    *uint64 `json:"resource_id"` // null applies to every resource
	StartDate     string  `json:"start_date"`  // YYYY-MM-DD
	EndDate       *string `json:"end_date"`
	AllDay        bool    `json:"all_day"`
	StartTime     string  `json:"start_time"` // HH:MM, required unless all_day
	EndTime       string  `json:"end_time"`
	Kind          string  `json:"kind"` // HOLD | BLACKOUT | MAINTENANCE
	Reason        string  `json:"reason"`
	Recurrence    string  `json:"recurrence"` // NONE | DAILY | WEEKLY | MONTHLY | YEARLY
	RecurrenceEnd *string `json:"recurrence_end"`
}

type blockResp struct {
	ID            uint64  `json:"id"`
	ResourceID    *uint64 `json:"resource_id"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date,omitempty"`
	AllDay        bool    `json:"all_day"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Kind          string  `json:"kind"`
	Reason        string  `json:"reason,omitempty"`
	Recurrence    string  `json:"recurrence"`
	RecurrenceEnd *string `json:"recurrence_end,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toBlockResp(b *model.Block) blockResp {
	r := blockResp{
		ID:         b.ID,
		StartDate:  b.StartDate.Format("2006-01-02"),
		AllDay:     b.AllDay,
		Kind:       string(b.Kind),
		Reason:     b.Reason,
		Recurrence: string(b.Recurrence),
		CreatedAt:  b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  b.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if id, ok := b.Scope.ResourceID(); ok {
		r.ResourceID = &id
	}
	if b.EndDate != nil {
		s := b.EndDate.Format("2006-01-02")
		r.EndDate = &s
	}
	if !b.AllDay {
		st, et := b.StartTime.Short(), b.EndTime.Short()
		r.StartTime, r.EndTime = &st, &et
	}
	if b.RecurrenceEnd != nil {
		s := b.RecurrenceEnd.Format("2006-01-02")
		r.RecurrenceEnd = &s
	}
	return r
}

// blockFromReq validates the request and builds a model.Block.  The
// returned message is empty on success.
func blockFromReq(req blockReq) (*model.Block, string) {
	start, ok := parseDate(req.StartDate)
	if !ok {
		return nil, "start_date must be YYYY-MM-DD"
	}
	b := &model.Block{
		StartDate:  start,
		AllDay:     req.AllDay,
		Kind:       model.BlockKind(req.Kind),
		Reason:     req.Reason,
		Recurrence: model.Rule(req.Recurrence),
	}
	if req.ResourceID != nil {
		if *req.ResourceID == 0 {
			return nil, "resource_id must be positive"
		}
		b.Scope = model.OneResource(*req.ResourceID)
	} else {
		b.Scope = model.AllResources()
	}
	if req.EndDate != nil {
		end, ok := parseDate(*req.EndDate)
		if !ok {
			return nil, "end_date must be YYYY-MM-DD"
		}
		if end.Before(start) {
			return nil, "end_date must not precede start_date"
		}
		b.EndDate = &end
	}
	if !b.AllDay {
		st, ok := parseClock(req.StartTime)
		if !ok {
			return nil, "start_time must be HH:MM"
		}
		et, ok := parseClock(req.EndTime)
		if !ok {
			return nil, "end_time must be HH:MM"
		}
		if et <= st {
			return nil, "end_time must be after start_time"
		}
		b.StartTime, b.EndTime = st, et
	}
	if !model.ValidBlockKind(b.Kind) {
		return nil, "kind must be HOLD, BLACKOUT or MAINTENANCE"
	}
	if b.Recurrence == "" {
		b.Recurrence = model.RuleNone
	}
	if !model.ValidRule(b.Recurrence) {
		return nil, "recurrence must be NONE, DAILY, WEEKLY, MONTHLY or YEARLY"
	}
	if req.RecurrenceEnd != nil {
		if b.Recurrence == model.RuleNone {
			return nil, "recurrence_end requires a recurrence rule"
		}
		end, ok := parseDate(*req.RecurrenceEnd)
		if !ok {
			return nil, "recurrence_end must be YYYY-MM-DD"
		}
		if end.Before(start) {
			return nil, "recurrence_end must not precede start_date"
		}
		b.RecurrenceEnd = &end
	}
	return b, ""
}

// Create registers a new block.
// POST /v1/blocks
func (h *BlockHandler) Create(c echo.Context) error {
	var req blockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	b, msg := blockFromReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Blocks.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create block failed"})
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	return c.JSON(http.StatusCreated, toBlockResp(b))
}

// Update replaces a block's definition.
// PUT /v1/blocks/:id
func (h *BlockHandler) Update(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req blockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	b, msg := blockFromReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	b.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Blocks.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update block failed"})
	}
	stored, err := h.Blocks.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload block failed"})
	}
	return c.JSON(http.StatusOK, toBlockResp(stored))
}

// Delete removes a block.
// DELETE /v1/blocks/:id
func (h *BlockHandler) Delete(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Blocks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete block failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Get fetches a single block.
// GET /v1/blocks/:id
func (h *BlockHandler) Get(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Blocks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toBlockResp(b))
}

// List returns all blocks relevant to a resource, global ones
// included.
// GET /v1/blocks?resource_id=1
func (h *BlockHandler) List(c echo.Context) error {
	resourceID, ok := queryUint(c, "resource_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	blocks, err := h.Blocks.ListByResource(ctx, resourceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]blockResp, 0, len(blocks))
	for i := range blocks {
		out = append(out, toBlockResp(&blocks[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"blocks": out})
}
