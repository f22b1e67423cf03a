package handler

import (
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AssignmentHandler struct {
	service service.AssignmentService
}

func NewAssignmentHandler(s service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: s}
}

// CreateAssignment hands equipment to a named person
// POST /api/v1/assignments
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	var req service.CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	assignment, err := h.service.Assign(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Equipment assigned", "data": assignment})
}

// ReturnAssignment brings assigned equipment back into stock. The body is
// optional.
// POST /api/v1/assignments/:id/return
func (h *AssignmentHandler) ReturnAssignment(c *fiber.Ctx) error {
	var req service.ReturnAssignmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	assignment, err := h.service.Return(c.UserContext(), a, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Equipment returned", "data": assignment})
}

// GET /api/v1/assignments
func (h *AssignmentHandler) GetAssignments(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	filter, err := journalFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	assignments, err := h.service.List(c.UserContext(), a, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": assignments})
}

// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	assignment, err := h.service.GetByID(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": assignment})
}
