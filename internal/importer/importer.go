// Package importer turns bank statement files into validated rows. A file is
// either fully valid or rejected; nothing is returned for a partially valid file.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"school-finance-backend/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Columns is the fixed, case-sensitive header contract.
var Columns = []string{"date", "amount", "reference", "narration"}

// Row is one validated statement line.
type Row struct {
	Line      int             `json:"line"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Narration string          `json:"narration"`
}

type rawRow struct {
	Date      string `col:"date" validate:"required"`
	Amount    string `col:"amount" validate:"required"`
	Reference string `col:"reference" validate:"required,max=100"`
	Narration string `col:"narration"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("col")
	})
	return v
}

// Parse dispatches on the file extension: .xlsx files go through ParseXLSX, everything else is CSV.
func Parse(filename string, r io.Reader, loc *time.Location) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseXLSX(r, loc)
	}
	return ParseCSV(r, loc)
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader, loc *time.Location) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeInvalidInput, "cannot open workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeInvalidInput, "cannot read worksheet")
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, apperrors.CodeMissingColumn, "statement has no header row")
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var out []Row
	for i, record := range rows[1:] {
		if blank(record) {
			continue
		}
		row, err := parseRecord(i+2, record, index, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(Columns))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, apperrors.New(apperrors.KindValidation, apperrors.CodeMissingColumn,
				fmt.Sprintf("missing column %q", col)).WithContext("column", col)
		}
	}
	return index, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cell(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

func parseRecord(line int, record []string, index map[string]int, loc *time.Location) (Row, error) {
	raw := rawRow{
		Date:      cell(record, index["date"]),
		Amount:    cell(record, index["amount"]),
		Reference: cell(record, index["reference"]),
		Narration: cell(record, index["narration"]),
	}

	if err := validate.Struct(raw); err != nil {
		return Row{}, fmt.Errorf("row %d: %w", line, apperrors.FromValidator(err))
	}

	date, err := ParseDate(raw.Date, loc)
	if err != nil {
		return Row{}, fmt.Errorf("row %d: %w", line, err)
	}
	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return Row{}, fmt.Errorf("row %d: %w", line, err)
	}

	return Row{
		Line:      line,
		Date:      date,
		Amount:    amount,
		Reference: raw.Reference,
		Narration: raw.Narration,
	}, nil
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate reads an ISO-8601 date or timestamp. Values carrying an offset keep it; naive values are
// read in loc. The result is always UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	// Workbooks sometimes carry the raw date serial instead of a formatted date.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
			return naive.UTC(), nil
		}
	}
	return time.Time{}, apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidDate,
		fmt.Sprintf("date: %q is not an ISO-8601 date", s)).WithContext("field", "date")
}

// ParseAmount reads a signed amount with at most two decimal places. Debit lines come back
// non-positive; deciding what to do with them is left to the caller.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidAmount,
			fmt.Sprintf("amount: %q is not a number", s)).WithContext("field", "amount")
	}
	if !amount.Round(2).Equal(amount) {
		return decimal.Zero, apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidAmount,
			fmt.Sprintf("amount: %q has more than two decimal places", s)).WithContext("field", "amount")
	}
	return amount, nil
}
