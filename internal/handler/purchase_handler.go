package handler

import (
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(s service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: s}
}

// CreatePurchase records stock bought into a base
// POST /api/v1/purchases
func (h *PurchaseHandler) CreatePurchase(c *fiber.Ctx) error {
	var req service.RecordPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	purchase, err := h.service.Record(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase recorded", "data": purchase})
}

// GetPurchases lists purchases
// GET /api/v1/purchases
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	filter, err := journalFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	purchases, err := h.service.List(c.UserContext(), a, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": purchases})
}

// GET /api/v1/purchases/:id
func (h *PurchaseHandler) GetPurchase(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	purchase, err := h.service.GetByID(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": purchase})
}
