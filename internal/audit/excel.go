package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"Run ID", "Kind", "Booking ID", "Restaurant ID", "Table ID", "Assignment Type", "At"}

// ExportExcel writes the assignment decisions recorded since the given time
// to an Excel file for operators.
func (r *Recorder) ExportExcel(ctx context.Context, since time.Time, path string) error {
	f, count, err := r.workbook(ctx, since)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save export: %w", err)
	}

	r.logger.Info().Str("path", path).Int("records", count).Msg("audit export written")
	return nil
}

// WriteExcel streams the assignment decisions recorded since the given time
// as an Excel workbook, for the export endpoint.
func (r *Recorder) WriteExcel(ctx context.Context, since time.Time, w io.Writer) error {
	f, count, err := r.workbook(ctx, since)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	r.logger.Info().Int("records", count).Msg("audit export streamed")
	return nil
}

func (r *Recorder) workbook(ctx context.Context, since time.Time) (*excelize.File, int, error) {
	records, err := r.store.GetAuditRecords(ctx, since)
	if err != nil {
		return nil, 0, fmt.Errorf("load audit records: %w", err)
	}

	f := excelize.NewFile()

	sheet := "Assignments"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, 0, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			f.Close()
			return nil, 0, err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, rec := range records {
		row := []interface{}{
			rec.RunID, rec.Kind, rec.BookingID, rec.RestaurantID,
			rec.TableID, rec.AssignmentType, rec.At.Format(time.RFC3339),
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				f.Close()
				return nil, 0, err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				f.Close()
				return nil, 0, err
			}
		}
	}

	return f, len(records), nil
}
