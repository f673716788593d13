package report

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/rawbank/siop-reporter/internal/model"
)

// SheetName is the single sheet every report workbook carries.
const SheetName = "Opérations SIOP"

// Headers is the fixed column schema, in order. Rendering and the
// startup column check both rely on this list.
var Headers = []string{
	"Date", "Fichier", "Canal", "Service", "Type Message",
	"Bénéficiaire", "Montant", "Motif", "Frais",
	"Status Message", "Status Lot", "Status TX", "Erreur",
}

// maxColWidth caps auto-fit so one oversized error message cannot blow
// up the sheet.
const maxColWidth = 50

const dateCellFormat = "dd/mm/yyyy hh:mm"

// RenderError means a workbook could not be built for one bundle.
// Contained to that bundle.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render workbook: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// ---- value computation (pure, no excelize types) ----

type cellKind int

const (
	cellEmpty cellKind = iota
	cellText
	cellDate
	cellAmount
)

type cellValue struct {
	kind   cellKind
	text   string
	date   time.Time
	amount float64
}

// display is the approximate on-screen width source for column sizing.
func (c cellValue) display() string {
	switch c.kind {
	case cellText:
		return c.text
	case cellDate:
		return c.date.Format("02/01/2006 15:04")
	case cellAmount:
		return fmt.Sprintf("%.2f", c.amount)
	default:
		return ""
	}
}

func textCell(s string) cellValue { return cellValue{kind: cellText, text: s} }

// computeRows maps records onto the column schema. A null date or amount
// becomes an empty cell, never a placeholder string.
func computeRows(records []model.TransactionRecord) [][]cellValue {
	rows := make([][]cellValue, 0, len(records))
	for _, rec := range records {
		row := make([]cellValue, len(Headers))

		if rec.CreatedAt.Valid {
			row[0] = cellValue{kind: cellDate, date: rec.CreatedAt.Time}
		}
		row[1] = textCell(rec.Filename)
		row[2] = textCell(rec.Channel)
		row[3] = textCell(rec.Service)
		row[4] = textCell(rec.MessageType)
		row[5] = textCell(rec.Beneficiary)
		if rec.Amount.Valid {
			row[6] = cellValue{kind: cellAmount, amount: rec.Amount.Decimal.InexactFloat64()}
		}
		row[7] = textCell(rec.Motive)
		row[8] = textCell(rec.Fee)
		row[9] = textCell(rec.MessageStatus)
		row[10] = textCell(rec.LotStatus)
		row[11] = textCell(rec.TransactionStatus)
		row[12] = textCell(rec.ErrorMessage.String)

		rows = append(rows, row)
	}
	return rows
}

// ---- styling and workbook assembly ----

type sheetStyles struct {
	header int
	data   int
	date   int
	amount int
}

func buildStyles(f *excelize.File) (sheetStyles, error) {
	thin := []excelize.Border{
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
	}

	var s sheetStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"000080"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thin,
	})
	if err != nil {
		return s, err
	}

	s.data, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return s, err
	}

	dateFmt := dateCellFormat
	s.date, err = f.NewStyle(&excelize.Style{
		Alignment:    &excelize.Alignment{Vertical: "center"},
		Border:       thin,
		CustomNumFmt: &dateFmt,
	})
	if err != nil {
		return s, err
	}

	// 4 = builtin "#,##0.00"
	s.amount, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    thin,
		NumFmt:    4,
	})
	return s, err
}

// Render builds the single-sheet styled workbook for an ordered record
// sequence. Pure: the same rows always produce the same sheet content.
func Render(records []model.TransactionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, &RenderError{Err: err}
	}

	styles, err := buildStyles(f)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	widths := make([]int, len(Headers))

	for i, h := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, &RenderError{Err: err}
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, &RenderError{Err: err}
		}
		if err := f.SetCellStyle(SheetName, cell, cell, styles.header); err != nil {
			return nil, &RenderError{Err: err}
		}
		widths[i] = utf8.RuneCountInString(h)
	}

	for rowIdx, row := range computeRows(records) {
		for colIdx, cv := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, &RenderError{Err: err}
			}

			style := styles.data
			switch cv.kind {
			case cellDate:
				style = styles.date
				err = f.SetCellValue(SheetName, cell, cv.date)
			case cellAmount:
				style = styles.amount
				err = f.SetCellValue(SheetName, cell, cv.amount)
			case cellText:
				err = f.SetCellValue(SheetName, cell, cv.text)
			}
			if err != nil {
				return nil, &RenderError{Err: err}
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return nil, &RenderError{Err: err}
			}

			if w := utf8.RuneCountInString(cv.display()); w > widths[colIdx] {
				widths[colIdx] = w
			}
		}
	}

	for i, w := range widths {
		width := float64(w + 2) // +2 for cell padding
		if width > maxColWidth {
			width = maxColWidth
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, &RenderError{Err: err}
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, &RenderError{Err: err}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}
