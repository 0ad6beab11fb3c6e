// Package xlsximport reads reservoir level workbooks.
//
// Every sheet holds the readings of one reservoir and is named after its
// id. The first row is a header; the date column is the first column
// whose header starts with "date" (default A) and the fill column the
// first whose header starts with "fill" (default B). Dates may be ISO
// strings or Excel serial numbers. An optional sheet named "Reservoirs"
// holds the catalogue with columns ID | Name | Capacity.
package xlsximport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/util"
)

// CatalogueSheet is the sheet name holding reservoir metadata.
const CatalogueSheet = "Reservoirs"

// Workbook is the decoded content of a level workbook.
type Workbook struct {
	Reservoirs []model.Reservoir
	Levels     []model.LevelSeries
	Skipped    []string // "sheet!row: reason" for rows that could not be read
}

// Import opens the workbook at path and decodes all sheets.
func Import(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an already opened workbook.
func Read(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if strings.EqualFold(sheet, CatalogueSheet) {
			wb.readCatalogue(sheet, rows)
			continue
		}
		if s, ok := wb.readLevels(sheet, rows); ok {
			wb.Levels = append(wb.Levels, s)
		}
	}
	if len(wb.Levels) == 0 && len(wb.Reservoirs) == 0 {
		return nil, fmt.Errorf("workbook contains no level sheets")
	}
	return wb, nil
}

func (wb *Workbook) readCatalogue(sheet string, rows [][]string) {
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		r := model.Reservoir{ID: strings.ToUpper(strings.TrimSpace(row[0]))}
		if len(row) > 1 {
			r.Name = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			if c := util.ParseFill(row[2]); !math.IsNaN(c) {
				r.CapacityHm3 = c
			} else {
				wb.skip(sheet, i, "invalid capacity %q", row[2])
			}
		}
		wb.Reservoirs = append(wb.Reservoirs, r)
	}
}

func (wb *Workbook) readLevels(sheet string, rows [][]string) (model.LevelSeries, bool) {
	if len(rows) < 2 {
		return model.LevelSeries{}, false
	}
	dateCol, fillCol := columns(rows[0])
	s := model.LevelSeries{ReservoirID: strings.ToUpper(strings.TrimSpace(sheet))}
	for i, row := range rows[1:] {
		n := i + 1
		if len(row) <= dateCol || strings.TrimSpace(row[dateCol]) == "" {
			continue
		}
		date, err := parseCellDate(row[dateCol])
		if err != nil {
			wb.skip(sheet, n, "%v", err)
			continue
		}
		raw := ""
		if len(row) > fillCol {
			raw = strings.TrimSpace(row[fillCol])
		}
		s.Readings = append(s.Readings, model.Reading{Date: date, Fill: util.ParseFill(raw), FillRaw: raw})
	}
	return s, len(s.Readings) > 0
}

func (wb *Workbook) skip(sheet string, row int, format string, args ...any) {
	wb.Skipped = append(wb.Skipped, fmt.Sprintf("%s!%d: %s", sheet, row+1, fmt.Sprintf(format, args...)))
}

// columns locates the date and fill columns from the header row.
func columns(header []string) (dateCol, fillCol int) {
	dateCol, fillCol = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case dateCol < 0 && strings.HasPrefix(h, "date"):
			dateCol = i
		case fillCol < 0 && strings.HasPrefix(h, "fill"):
			fillCol = i
		}
	}
	if dateCol < 0 {
		dateCol = 0
	}
	if fillCol < 0 {
		fillCol = 1
	}
	return dateCol, fillCol
}

// parseCellDate accepts YYYY-MM-DD or an Excel date serial.
func parseCellDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := util.ParseDate(s); err == nil {
		return t, nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
