package cli

import (
	"fmt"

	"stock-pos/internal/core"

	"github.com/xuri/excelize/v2"
)

const movementsSheet = "Movements"

var movementHeaders = []string{"ID", "Date", "Product ID", "Product", "Type", "Quantity", "Reason", "Sale ID", "Created By"}

// writeMovementsXLSX saves movements as a single-sheet workbook at path, one row per movement.
func writeMovementsXLSX(movements []core.InventoryMovement, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range movementHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(movementsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", h, err)
		}
	}

	for i, m := range movements {
		var saleID any
		if m.SaleID != nil {
			saleID = *m.SaleID
		}
		row := []any{
			m.ID,
			m.Date.Format(core.DateLayout),
			m.ProductID,
			m.ProductName,
			string(m.Type),
			m.Quantity,
			m.Reason,
			saleID,
			m.CreatedBy,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(movementsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write movement %d: %w", m.ID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
