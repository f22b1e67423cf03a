package handler

import (
	"context"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransferHandler struct {
	service service.TransferService
}

func NewTransferHandler(s service.TransferService) *TransferHandler {
	return &TransferHandler{service: s}
}

// CreateTransfer requests a transfer between two bases
// POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *fiber.Ctx) error {
	var req service.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	a, err := actor(c)
	if err != nil {
		return err
	}

	transfer, err := h.service.Create(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transfer requested", "data": transfer})
}

type transitionFunc func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)

func (h *TransferHandler) transition(c *fiber.Ctx, fn transitionFunc, message string) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	transfer, err := fn(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "data": transfer})
}

// POST /api/v1/transfers/:id/approve
func (h *TransferHandler) ApproveTransfer(c *fiber.Ctx) error {
	return h.transition(c, h.service.Approve, "Transfer approved")
}

// POST /api/v1/transfers/:id/reject
func (h *TransferHandler) RejectTransfer(c *fiber.Ctx) error {
	return h.transition(c, h.service.Reject, "Transfer rejected")
}

// POST /api/v1/transfers/:id/complete
func (h *TransferHandler) CompleteTransfer(c *fiber.Ctx) error {
	return h.transition(c, h.service.Complete, "Transfer completed")
}

// POST /api/v1/transfers/:id/cancel
func (h *TransferHandler) CancelTransfer(c *fiber.Ctx) error {
	return h.transition(c, h.service.Cancel, "Transfer cancelled")
}

// GET /api/v1/transfers
func (h *TransferHandler) GetTransfers(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	filter, err := journalFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	transfers, err := h.service.List(c.UserContext(), a, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": transfers})
}

// GET /api/v1/transfers/:id
func (h *TransferHandler) GetTransfer(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	transfer, err := h.service.GetByID(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": transfer})
}
