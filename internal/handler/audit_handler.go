package handler

import (
	"go-armory-ledger/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	auditRepo repository.AuditRepository
}

func NewAuditHandler(auditRepo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// GetAuditLogs lists committed ledger mutations, newest first
// GET /api/v1/audit-logs?record_id=&action=&limit=&offset=
func (h *AuditHandler) GetAuditLogs(c *fiber.Ctx) error {
	var filter repository.AuditFilter
	var err error
	if filter.RecordID, err = queryUUID(c, "record_id"); err != nil {
		return respondError(c, err)
	}
	filter.Action = c.Query("action")
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return respondError(c, err)
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return respondError(c, err)
	}

	logs, err := h.auditRepo.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": logs})
}
