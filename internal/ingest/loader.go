package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lox/gridcast/internal/models"
)

// ErrSchema marks a source table that is missing required columns or has
// values that cannot be parsed.
var ErrSchema = errors.New("schema")

type Format int

const (
	FormatXLSX Format = iota
	FormatCSV
)

// FormatFromName picks a table format from a file name or URL path.
// Anything that is not .csv is read as a workbook.
func FormatFromName(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if strings.EqualFold(path.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

type LoaderConfig struct {
	StationColumn    string
	DateColumn       string
	CategoryColumn   string
	CapabilityColumn string
	Categories       []string
	Sheet            string // empty means the first sheet
}

var DefaultCategories = []string{"Gas", "Nuclear", "Thermal"}

func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		StationColumn:    "Station",
		DateColumn:       "Date",
		CategoryColumn:   "Type Of Station",
		CapabilityColumn: "Declared Capability (MWh)",
		Categories:       DefaultCategories,
	}
}

// Load reads a station table and returns one reading per (station, date),
// restricted to the configured categories. Duplicate rows for the same
// station and date are summed.
func Load(r io.Reader, format Format, cfg LoaderConfig) ([]models.Reading, error) {
	rows, err := ReadTable(r, format, cfg.Sheet)
	if err != nil {
		return nil, err
	}
	return ParseTable(rows, cfg)
}

// ReadTable returns the raw rows of a csv file or of one workbook sheet,
// header first.
func ReadTable(r io.Reader, format Format, sheet string) ([][]string, error) {
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return rows, nil
	default:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		if sheet == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				return nil, fmt.Errorf("%w: workbook has no sheets", ErrSchema)
			}
			sheet = sheets[0]
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		return rows, nil
	}
}

type readingKey struct {
	station string
	date    time.Time
}

// ParseTable converts raw rows (header first) into readings.
func ParseTable(rows [][]string, cfg LoaderConfig) ([]models.Reading, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrSchema)
	}

	header := rows[0]
	stationIdx, err := columnIndex(header, cfg.StationColumn)
	if err != nil {
		return nil, err
	}
	dateIdx, err := columnIndex(header, cfg.DateColumn)
	if err != nil {
		return nil, err
	}
	categoryIdx, err := columnIndex(header, cfg.CategoryColumn)
	if err != nil {
		return nil, err
	}
	capabilityIdx, err := columnIndex(header, cfg.CapabilityColumn)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(cfg.Categories))
	for _, c := range cfg.Categories {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}

	grouped := make(map[readingKey]*models.Reading)
	for i, row := range rows[1:] {
		line := i + 2
		category := strings.TrimSpace(cell(row, categoryIdx))
		if !allowed[strings.ToLower(category)] {
			continue
		}

		date, err := ParseDate(cell(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrSchema, line, err)
		}
		capability, err := parseCapability(cell(row, capabilityIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrSchema, line, err)
		}

		key := readingKey{station: strings.TrimSpace(cell(row, stationIdx)), date: date}
		existing, ok := grouped[key]
		if !ok {
			grouped[key] = &models.Reading{
				Station:    key.station,
				Date:       date,
				Category:   category,
				Capability: capability,
			}
			continue
		}
		if capability.Valid {
			existing.Capability = sql.NullFloat64{
				Float64: existing.Capability.Float64 + capability.Float64,
				Valid:   true,
			}
		}
	}

	readings := make([]models.Reading, 0, len(grouped))
	for _, r := range grouped {
		readings = append(readings, *r)
	}
	sort.Slice(readings, func(i, j int) bool {
		if readings[i].Station != readings[j].Station {
			return readings[i].Station < readings[j].Station
		}
		return readings[i].Date.Before(readings[j].Date)
	})
	return readings, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: missing column %q", ErrSchema, name)
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

var dateLayouts = []string{
	"02 Jan 2006",
	"2 Jan 2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-Jan-2006",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate accepts the export's "DD Mon YYYY" strings, ISO dates and
// spreadsheet serial numbers. The result is truncated to the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", s, err)
		}
		return models.Day(t), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseCapability(s string) (sql.NullFloat64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch strings.ToLower(s) {
	case "", "-", "na", "n/a", "nan":
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("capability %q: %w", s, err)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
