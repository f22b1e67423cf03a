package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go-armory-ledger/internal/middleware"
	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var statusByKind = map[string]int{
	"validation_error":     fiber.StatusBadRequest,
	"not_found":            fiber.StatusNotFound,
	"unauthorized":         fiber.StatusForbidden,
	"invalid_state":        fiber.StatusConflict,
	"insufficient_balance": fiber.StatusUnprocessableEntity,
	"concurrency_conflict": fiber.StatusConflict,
}

// respondError writes ledger errors as {"error", "code", "details"}. Anything
// outside the taxonomy is returned to fiber's error handler.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		return err
	}

	body := fiber.Map{"error": err.Error(), "code": kind}
	var validation *apperrors.ValidationError
	var balance *apperrors.InsufficientBalanceError
	var state *apperrors.StateError
	switch {
	case errors.As(err, &validation) && len(validation.Fields) > 0:
		body["details"] = validation.Fields
	case errors.As(err, &balance):
		body["details"] = balance
	case errors.As(err, &state):
		body["details"] = state
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": "validation_error"})
}

// actor returns the authenticated actor. Routes are always mounted behind
// RequireAuth, so a missing actor is a wiring bug.
func actor(c *fiber.Ctx) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "missing actor")
	}
	return a, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("invalid %s", name)
	}
	return id, nil
}

// queryUUIDs reads a comma-separated list of ids.
func queryUUIDs(c *fiber.Ctx, name string) ([]uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, apperrors.NewValidationError("invalid %s %q", name, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid %s", name)
	}
	return &id, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func queryTime(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid %s, use YYYY-MM-DD or RFC 3339", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("invalid %s", name)
	}
	return n, nil
}

// journalFilter reads base_id, equipment_type_id, status, from, to, limit
// and offset.
func journalFilter(c *fiber.Ctx) (repository.JournalFilter, error) {
	var f repository.JournalFilter
	var err error
	if f.BaseIDs, err = queryUUIDs(c, "base_id"); err != nil {
		return f, err
	}
	if f.EquipmentTypeID, err = queryUUID(c, "equipment_type_id"); err != nil {
		return f, err
	}
	f.Status = c.Query("status")
	if f.From, err = queryTime(c, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to", true); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}
