package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/security/validation"
	"github.com/username/perfolio/src/utils"
)

var (
	ErrInvalidRow    = errors.New("invalid row")
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("file has no header row")
)

// Parser reads one warehouse table from a CSV file.
type Parser interface {
	Parse(file io.Reader) (models.ImportBatch, error)
}

// csvRow is one data record addressed by header name.
type csvRow struct {
	line   int
	fields []string
	index  map[string]int
}

func (r csvRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r csvRow) fail(column, format string, args ...interface{}) error {
	return fmt.Errorf("%w at line %d, column %s: %s", ErrInvalidRow, r.line, column, fmt.Sprintf(format, args...))
}

func (r csvRow) required(column string) (string, error) {
	v := r.get(column)
	if v == "" {
		return "", r.fail(column, "value is required")
	}
	return v, nil
}

func (r csvRow) code(column string) (string, error) {
	v, err := r.required(column)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(v), nil
}

func (r csvRow) date(column string) (time.Time, error) {
	v, err := r.required(column)
	if err != nil {
		return time.Time{}, err
	}
	d, err := utils.ParseDate(v)
	if err != nil {
		return time.Time{}, r.fail(column, "%q is not a YYYY-MM-DD date", v)
	}
	return d, nil
}

func (r csvRow) optionalDate(column string) (*time.Time, error) {
	if r.get(column) == "" {
		return nil, nil
	}
	d, err := r.date(column)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r csvRow) decimal(column string) (decimal.Decimal, error) {
	v, err := r.required(column)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, r.fail(column, "%q is not a number", v)
	}
	return d, nil
}

// optionalDecimal reads a blank cell as zero.
func (r csvRow) optionalDecimal(column string) (decimal.Decimal, error) {
	if r.get(column) == "" {
		return decimal.Zero, nil
	}
	return r.decimal(column)
}

func (r csvRow) label(column string) *string {
	return validation.SanitizeOptionalLabel(r.get(column))
}

// readTable validates the header against required and calls fn for every
// data record. Header names are matched case-insensitively.
func readTable(file io.Reader, required []string, fn func(csvRow) error) error {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return ErrEmptyFile
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRow, err)
		}
		line, _ := reader.FieldPos(0)
		if err := fn(csvRow{line: line, fields: record, index: index}); err != nil {
			return err
		}
	}
}
