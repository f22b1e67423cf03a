package handler

import (
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.MetricsService
}

func NewDashboardHandler(s service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

func metricsQuery(c *fiber.Ctx) (service.MetricsQuery, error) {
	var q service.MetricsQuery
	var err error
	if q.BaseIDs, err = queryUUIDs(c, "base_id"); err != nil {
		return q, err
	}
	if q.EquipmentTypeID, err = queryUUID(c, "equipment_type_id"); err != nil {
		return q, err
	}
	if q.From, err = queryTime(c, "from", false); err != nil {
		return q, err
	}
	if q.To, err = queryTime(c, "to", true); err != nil {
		return q, err
	}
	return q, nil
}

// GetMetrics returns opening, closing and net movement for a slice
// Query params: base_id (comma separated), equipment_type_id, from, to
func (h *DashboardHandler) GetMetrics(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := metricsQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	metrics, err := h.service.GetMetrics(c.UserContext(), a, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(metrics)
}

// GetMovements returns the merged movement history
func (h *DashboardHandler) GetMovements(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := metricsQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return respondError(c, err)
	}

	movements, err := h.service.Movements(c.UserContext(), a, service.MovementQuery{
		BaseIDs:         q.BaseIDs,
		EquipmentTypeID: q.EquipmentTypeID,
		From:            q.From,
		To:              q.To,
		Limit:           limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": movements})
}

// GetReconciliation compares stored balances with the journal
func (h *DashboardHandler) GetReconciliation(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := metricsQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.Reconcile(c.UserContext(), a, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
