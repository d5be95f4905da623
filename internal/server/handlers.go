package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/store"
)

// snapshotResponse is the wire shape for state fetches. The watermark is the
// client's reconciliation pivot, so it rides next to the state rather than
// inside it.
type snapshotResponse struct {
	State     focus.State `json:"state"`
	Watermark time.Time   `json:"watermark"`
}

type syncResponse struct {
	Watermark time.Time `json:"watermark"`
}

type panicRequest struct {
	CategoryID   string `json:"categoryId,omitempty"`
	BlockID      string `json:"blockId,omitempty"`
	Urge         *int   `json:"urge,omitempty"`
	Emotion      string `json:"emotion,omitempty"`
	ChosenAction string `json:"chosenAction,omitempty"`
}

type checkinResponse struct {
	Log            *store.DailyLog      `json:"log"`
	Recommendation store.Recommendation `json:"recommendation"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	id := identityFrom(c)
	state, watermark, err := s.store.ReadSnapshot(id.UserID, s.now())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(snapshotResponse{State: state, Watermark: watermark})
}

func (s *Server) handleSync(c *fiber.Ctx) error {
	var state focus.State
	if err := c.BodyParser(&state); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed body",
		})
	}

	id := identityFrom(c)
	watermark, err := s.store.WriteSnapshot(id.UserID, state, s.now())
	if errors.Is(err, store.ErrInvalidSnapshot) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": store.ErrInvalidSnapshot.Error(),
		})
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(syncResponse{Watermark: watermark})
}

func (s *Server) handlePanic(c *fiber.Ctx) error {
	var req panicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed body",
		})
	}

	id := identityFrom(c)
	event := store.PanicEvent{
		CategoryID:   req.CategoryID,
		BlockID:      req.BlockID,
		Urge:         req.Urge,
		Emotion:      req.Emotion,
		ChosenAction: req.ChosenAction,
	}
	if err := s.store.LogPanicEvent(id.UserID, event, s.now()); err != nil {
		return internalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"logged": true})
}

func (s *Server) handleCheckinGet(c *fiber.Ctx) error {
	id := identityFrom(c)
	log, err := s.store.TodayLog(id.UserID, s.now())
	if err != nil {
		return internalError(c, err)
	}
	resp := checkinResponse{Log: log}
	if log != nil {
		resp.Recommendation = store.Recommend(log.Urge, log.Energy)
	} else {
		resp.Recommendation = store.Recommend(nil, nil)
	}
	return c.JSON(resp)
}

func (s *Server) handleCheckinPost(c *fiber.Ctx) error {
	var log store.DailyLog
	if err := c.BodyParser(&log); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed body",
		})
	}

	id := identityFrom(c)
	now := s.now()
	if err := s.store.SaveDailyLog(id.UserID, log, now); err != nil {
		return internalError(c, err)
	}
	saved, err := s.store.TodayLog(id.UserID, now)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(checkinResponse{
		Log:            saved,
		Recommendation: store.Recommend(log.Urge, log.Energy),
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	id := identityFrom(c)
	days, _ := strconv.Atoi(c.Query("days", "14"))
	stats, err := s.store.DashboardStats(id.UserID, days, s.now())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(stats)
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
