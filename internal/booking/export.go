package booking

import (
	"context"
	"fmt"
	"io"
	"strings"

	"clinicbook/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExportColumns is the column order of both exports.
var ExportColumns = []string{"id", "name", "phone", "service", "price", "date", "time", "status", "createdAt"}

const xlsxSheet = "Bookings"

func exportRow(b models.Booking) []string {
	return []string{b.ID, b.Name, b.Phone, b.Service, string(b.Price), b.Date, b.Time, string(b.Status), b.CreatedAt}
}

// ExportCSV renders the collection with every field quoted. An empty collection
// renders as the empty string.
func (r *Repository) ExportCSV(ctx context.Context) (string, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return "", err
	}
	return EncodeCSV(bookings), nil
}

func EncodeCSV(bookings []models.Booking) string {
	if len(bookings) == 0 {
		return ""
	}

	rows := make([]string, 0, len(bookings)+1)
	rows = append(rows, strings.Join(ExportColumns, ","))
	for _, b := range bookings {
		fields := exportRow(b)
		for i, f := range fields {
			fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		rows = append(rows, strings.Join(fields, ","))
	}
	return strings.Join(rows, "\n")
}

// ExportXLSX writes the collection as a workbook with a bold header row.
func (r *Repository) ExportXLSX(ctx context.Context, w io.Writer) error {
	bookings, err := r.load(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Переименовываем лист по умолчанию
	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		fields := exportRow(b)
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(ExportColumns), 1)
	_ = f.SetCellStyle(xlsxSheet, "A1", lastHeader, style)
	_ = f.SetColWidth(xlsxSheet, "A", "A", 24)
	_ = f.SetColWidth(xlsxSheet, "B", "I", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
