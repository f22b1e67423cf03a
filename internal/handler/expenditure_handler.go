package handler

import (
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ExpenditureHandler struct {
	service service.ExpenditureService
}

func NewExpenditureHandler(s service.ExpenditureService) *ExpenditureHandler {
	return &ExpenditureHandler{service: s}
}

// CreateExpenditure records permanently consumed stock
// POST /api/v1/expenditures
func (h *ExpenditureHandler) CreateExpenditure(c *fiber.Ctx) error {
	var req service.RecordExpenditureRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	expenditure, err := h.service.Record(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Expenditure recorded", "data": expenditure})
}

// GET /api/v1/expenditures
func (h *ExpenditureHandler) GetExpenditures(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	filter, err := journalFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	expenditures, err := h.service.List(c.UserContext(), a, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": expenditures})
}
