package sheetxlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-certgen/certgen"
	"github.com/xuri/excelize/v2"
)

const (
	idColumn   = 0
	nameColumn = 1
)

// Source opens workbooks with excelize.
type Source struct {
	// Sheet overrides the active sheet when set.
	Sheet string
}

// Open opens the workbook and positions an iterator before its first row.
func (s Source) Open(ctx context.Context, path string) (certgen.RowIterator, error) {
	_ = ctx
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, certgen.NewError(certgen.KindSource, fmt.Sprintf("open workbook %s", path), err)
	}

	sheet := s.Sheet
	if sheet == "" {
		sheet = file.GetSheetName(file.GetActiveSheetIndex())
	}
	if sheet == "" {
		_ = file.Close()
		return nil, certgen.NewError(certgen.KindSource, "workbook has no active sheet", nil)
	}

	rows, err := file.Rows(sheet)
	if err != nil {
		_ = file.Close()
		return nil, certgen.NewError(certgen.KindSource, fmt.Sprintf("read sheet %q", sheet), err)
	}

	return &iterator{file: file, rows: rows, sheet: sheet}, nil
}

type iterator struct {
	file   *excelize.File
	rows   *excelize.Rows
	sheet  string
	rowNum int
	closed bool
}

func (it *iterator) Next(ctx context.Context) (certgen.Row, error) {
	if err := ctx.Err(); err != nil {
		return certgen.Row{}, err
	}
	if it.closed {
		return certgen.Row{}, io.EOF
	}
	if !it.rows.Next() {
		if err := it.rows.Error(); err != nil {
			return certgen.Row{}, certgen.NewError(certgen.KindSource, fmt.Sprintf("read sheet %q", it.sheet), err)
		}
		return certgen.Row{}, io.EOF
	}
	it.rowNum++

	cols, err := it.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return certgen.Row{}, certgen.NewError(certgen.KindSource, fmt.Sprintf("read row %d", it.rowNum), err)
	}

	id, err := it.cellValue(cols, idColumn)
	if err != nil {
		return certgen.Row{}, err
	}
	name, err := it.cellValue(cols, nameColumn)
	if err != nil {
		return certgen.Row{}, err
	}
	return certgen.Row{Index: it.rowNum, ID: id, Name: name}, nil
}

func (it *iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	rowsErr := it.rows.Close()
	fileErr := it.file.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return fileErr
}

func (it *iterator) cellValue(cols []string, index int) (any, error) {
	cell, err := excelize.CoordinatesToCellName(index+1, it.rowNum)
	if err != nil {
		return nil, certgen.NewError(certgen.KindSource, "resolve cell name", err)
	}
	if index >= len(cols) || cols[index] == "" {
		return it.formulaText(cell)
	}
	raw := cols[index]

	cellType, err := it.file.GetCellType(it.sheet, cell)
	if err != nil {
		return nil, certgen.NewError(certgen.KindSource, fmt.Sprintf("read cell %s", cell), err)
	}
	return typedValue(cellType, raw), nil
}

// formulaText returns "=<formula>" for a formula cell saved without a cached
// result, and nil for a truly empty cell.
func (it *iterator) formulaText(cell string) (any, error) {
	formula, err := it.file.GetCellFormula(it.sheet, cell)
	if err != nil {
		return nil, certgen.NewError(certgen.KindSource, fmt.Sprintf("read formula %s", cell), err)
	}
	if formula == "" {
		return nil, nil
	}
	return "=" + strings.TrimPrefix(formula, "="), nil
}

// typedValue keeps text cells verbatim so identifiers such as "007" survive.
func typedValue(cellType excelize.CellType, raw string) any {
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE" || raw == "true"
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}
