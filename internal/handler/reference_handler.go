package handler

import (
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReferenceHandler struct {
	service service.ReferenceService
}

func NewReferenceHandler(s service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: s}
}

// GET /api/v1/bases
func (h *ReferenceHandler) GetBases(c *fiber.Ctx) error {
	bases, err := h.service.ListBases(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bases})
}

// POST /api/v1/bases
func (h *ReferenceHandler) CreateBase(c *fiber.Ctx) error {
	var req service.CreateBaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	base, err := h.service.CreateBase(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Base created", "data": base})
}

// GET /api/v1/equipment-types
func (h *ReferenceHandler) GetEquipmentTypes(c *fiber.Ctx) error {
	types, err := h.service.ListEquipmentTypes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": types})
}

// POST /api/v1/equipment-types
func (h *ReferenceHandler) CreateEquipmentType(c *fiber.Ctx) error {
	var req service.CreateEquipmentTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	equipmentType, err := h.service.CreateEquipmentType(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Equipment type created", "data": equipmentType})
}

// GetBalances lists current stock
// GET /api/v1/balances?base_id=&equipment_type_id=&non_zero=true
func (h *ReferenceHandler) GetBalances(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var filter repository.BalanceFilter
	if filter.BaseIDs, err = queryUUIDs(c, "base_id"); err != nil {
		return respondError(c, err)
	}
	if filter.EquipmentTypeID, err = queryUUID(c, "equipment_type_id"); err != nil {
		return respondError(c, err)
	}
	filter.NonZeroOnly = c.QueryBool("non_zero", false)

	balances, err := h.service.ListBalances(c.UserContext(), a, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": balances})
}
