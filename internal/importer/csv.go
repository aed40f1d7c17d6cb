package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"time"

	"school-finance-backend/internal/apperrors"
)

// ParseCSV reads a comma separated statement. Columns are located by header name; extra columns
// are ignored.
func ParseCSV(r io.Reader, loc *time.Location) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.New(apperrors.KindValidation, apperrors.CodeMissingColumn, "statement has no header row")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeInvalidInput, "cannot read CSV header")
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var out []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeInvalidInput, "malformed CSV")
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		row, err := parseRecord(line, record, index, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
