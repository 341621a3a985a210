package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/username/perfolio/src/utils"
)

const MaxBenchmarkSymbols = 20

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("start date must not be after end date")
	ErrInvalidAccountCode = errors.New("invalid account code")
	ErrInvalidSymbol      = errors.New("invalid benchmark symbol")

	accountCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
	symbolPattern      = regexp.MustCompile(`^[A-Za-z0-9.^=_-]{1,20}$`)
)

// ValidateDate parses a YYYY-MM-DD request date.
func ValidateDate(field, value string) (time.Time, error) {
	d, err := utils.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrInvalidDate, field, value)
	}
	return d, nil
}

// ValidateDateRange parses both ends of a period and checks their order.
func ValidateDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := ValidateDate("start_date", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ValidateDate("end_date", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if s.After(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start, end)
	}
	return s, e, nil
}

// ValidateAccountCodes trims and checks each code. At least one is required.
// Duplicates are dropped, keeping the first occurrence.
func ValidateAccountCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: account_codes must not be empty", ErrInvalidAccountCode)
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if !accountCodePattern.MatchString(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAccountCode, c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// ValidateBenchmarkSymbols checks the ticker list of a benchmark request.
func ValidateBenchmarkSymbols(symbols []string) ([]string, error) {
	if len(symbols) > MaxBenchmarkSymbols {
		return nil, fmt.Errorf("%w: at most %d symbols are allowed", ErrInvalidSymbol, MaxBenchmarkSymbols)
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if !symbolPattern.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
		}
		out = append(out, s)
	}
	return out, nil
}
