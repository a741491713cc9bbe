package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dailyflow/dailyflow/internal/platform/locale"
)

const xlsxSheet = "Reporte semanal"

var xlsxColumns = []struct {
	title string
	width float64
}{
	{"Colaborador", 24},
	{"Puesto", 20},
	{"Fecha", 22},
	{"Hora", 10},
	{"Título", 28},
	{"Estado", 12},
	{"Contenido", 70},
	{"Imágenes", 10},
}

// WriteXLSX lays out the document as a single sheet with one row per report,
// in the same employee grouping as the PDF.
func WriteXLSX(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, ErrEmptyDocument
	}
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, err
	}

	set := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, value)
	}

	if err := set(1, 1, "Reporte semanal"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}
	if err := set(1, 2, "Área: "+doc.AreaName); err != nil {
		return nil, err
	}
	if err := set(1, 3, fmt.Sprintf("Semana del %s al %s", locale.LongDate(doc.WeekStart), locale.LongDate(doc.WeekEnd))); err != nil {
		return nil, err
	}

	const headerRow = 5
	for i, col := range xlsxColumns {
		if err := set(i+1, headerRow, col.title); err != nil {
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(xlsxSheet, name, name, col.width); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(xlsxColumns))
	if err := f.SetCellStyle(xlsxSheet, "A5", fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle); err != nil {
		return nil, err
	}

	row := headerRow + 1
	for _, section := range doc.Sections {
		for _, card := range section.Cards {
			values := []any{
				section.EmployeeName,
				section.EmployeeRole,
				locale.LongDate(card.CreatedAt),
				locale.Time(card.CreatedAt),
				card.Title,
				card.MoodLabel,
				card.Content,
				card.ImageCount,
			}
			for i, v := range values {
				if err := set(i+1, row, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}
	if row > headerRow+1 {
		if err := f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", headerRow+1), fmt.Sprintf("%s%d", lastCol, row-1), wrapStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
