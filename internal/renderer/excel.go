package renderer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// WorkbookRow is one application row for the staff export.
type WorkbookRow struct {
	ApplicationID string
	StudentName   string
	GradeLevel    models.GradeLevel
	Strand        *models.Strand
	Status        models.ApplicationStatus
	CreatedAt     string
}

// ApplicationsWorkbook renders an xlsx workbook of the filtered admin
// listing, one application per row.
func (r *Renderer) ApplicationsWorkbook(rows []WorkbookRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Applications"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Application ID", "Student Name", "Grade Level", "Strand", "Status", "Submitted"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		strand := ""
		if row.Strand != nil {
			strand = string(*row.Strand)
		}

		values := []interface{}{
			row.ApplicationID,
			row.StudentName,
			string(row.GradeLevel),
			strand,
			string(row.Status),
			row.CreatedAt,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
