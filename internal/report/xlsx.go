// Package report renders ledger data as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	MovementsSheet = "Movements"
	SummarySheet   = "Summary"
)

var movementHeaders = []interface{}{
	"Date", "Kind", "Base", "Equipment Type", "Quantity", "Effect", "Counterparty", "Reference", "Actor",
}

// Labels resolves ids to display names. Missing ids print as the raw uuid.
type Labels struct {
	Bases          map[uuid.UUID]string
	EquipmentTypes map[uuid.UUID]string
}

func (l Labels) base(id uuid.UUID) string {
	if name, ok := l.Bases[id]; ok {
		return name
	}
	return id.String()
}

func (l Labels) equipmentType(id uuid.UUID) string {
	if name, ok := l.EquipmentTypes[id]; ok {
		return name
	}
	return id.String()
}

// SummaryRow is one label/value line on the summary sheet.
type SummaryRow struct {
	Label string
	Value int64
}

// WriteMovements writes a workbook with the movement history and, when
// summary is non-empty, a summary sheet.
func WriteMovements(w io.Writer, movements []model.Movement, labels Labels, summary []SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MovementsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(MovementsSheet, "A1", &movementHeaders); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(movementHeaders), 1)
	if err := f.SetCellStyle(MovementsSheet, "A1", last, style); err != nil {
		return err
	}

	for i, m := range movements {
		row := []interface{}{
			m.Date.UTC().Format(time.RFC3339),
			string(m.Kind),
			labels.base(m.BaseID),
			labels.equipmentType(m.EquipmentTypeID),
			m.Quantity,
			m.Effect,
			m.Counterparty,
			m.ReferenceID.String(),
			m.ActorID.String(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(MovementsSheet, cell, &row); err != nil {
			return fmt.Errorf("write movement row %d: %w", i, err)
		}
	}

	if len(summary) > 0 {
		if _, err := f.NewSheet(SummarySheet); err != nil {
			return err
		}
		for i, s := range summary {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			row := []interface{}{s.Label, s.Value}
			if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}
