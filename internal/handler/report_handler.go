package handler

import (
	"bytes"
	"fmt"
	"time"

	"go-armory-ledger/internal/report"
	"go-armory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	metrics    service.MetricsService
	references service.ReferenceService
}

func NewReportHandler(metrics service.MetricsService, references service.ReferenceService) *ReportHandler {
	return &ReportHandler{metrics: metrics, references: references}
}

// ExportMovements streams the movement history and metrics as XLSX
// GET /api/v1/reports/movements.xlsx
func (h *ReportHandler) ExportMovements(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := metricsQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	movements, err := h.metrics.Movements(ctx, a, service.MovementQuery{
		BaseIDs:         q.BaseIDs,
		EquipmentTypeID: q.EquipmentTypeID,
		From:            q.From,
		To:              q.To,
		Limit:           1000,
	})
	if err != nil {
		return respondError(c, err)
	}
	metrics, err := h.metrics.GetMetrics(ctx, a, q)
	if err != nil {
		return respondError(c, err)
	}

	labels, err := h.labels(c)
	if err != nil {
		return err
	}
	summary := []report.SummaryRow{
		{Label: "Opening balance", Value: metrics.OpeningBalance},
		{Label: "Purchases", Value: metrics.Purchases},
		{Label: "Transfers in", Value: metrics.TransfersIn},
		{Label: "Transfers out", Value: metrics.TransfersOut},
		{Label: "Expended", Value: metrics.Expended},
		{Label: "Net movement", Value: metrics.NetMovement},
		{Label: "Closing balance", Value: metrics.ClosingBalance},
		{Label: "Assigned", Value: metrics.Assigned},
		{Label: "Returned", Value: metrics.Returned},
	}

	var buf bytes.Buffer
	if err := report.WriteMovements(&buf, movements, labels, summary); err != nil {
		return err
	}

	filename := fmt.Sprintf("movements-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (h *ReportHandler) labels(c *fiber.Ctx) (report.Labels, error) {
	labels := report.Labels{
		Bases:          map[uuid.UUID]string{},
		EquipmentTypes: map[uuid.UUID]string{},
	}
	bases, err := h.references.ListBases(c.UserContext())
	if err != nil {
		return labels, err
	}
	for _, b := range bases {
		labels.Bases[b.ID] = b.Name
	}
	types, err := h.references.ListEquipmentTypes(c.UserContext())
	if err != nil {
		return labels, err
	}
	for _, t := range types {
		labels.EquipmentTypes[t.ID] = t.Name
	}
	return labels, nil
}
