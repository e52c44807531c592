// Package blocks describes the set of block numbers a panel can be built from.
//
// A Catalog is the contiguous range of published blocks minus the numbers that
// are not part of the contest. Owned ("NFH") blocks come from a separate list
// file and are validated against the same catalog.
package blocks

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// GridSize is the number of tiles in a panel (3x3).
const GridSize = 9

// Default catalog bounds.
const (
	DefaultMin = 10
	DefaultMax = 612
)

// DefaultIgnore lists block numbers that exist in the range but are not
// available in the contest.
var DefaultIgnore = []int{110, 111, 112, 412}

// Sentinel errors returned (wrapped in a ValidationError) by Catalog.Validate.
var (
	ErrTooFewNumbers = errors.New("too few block numbers")
	ErrNotANumber    = errors.New("not a valid number")
	ErrOutOfRange    = errors.New("outside the blocks range")
	ErrIgnoredNumber = errors.New("not available in the contest blocks")
)

// Catalog is the set of block numbers that may appear in a panel.
type Catalog struct {
	Min    int
	Max    int
	Ignore []int
}

// DefaultCatalog returns the contest catalog: 10..612 without the ignored blocks.
func DefaultCatalog() Catalog {
	return Catalog{
		Min:    DefaultMin,
		Max:    DefaultMax,
		Ignore: slices.Clone(DefaultIgnore),
	}
}

// Numbers returns every eligible block number in ascending order.
func (c Catalog) Numbers() []string {
	if c.Max < c.Min {
		return nil
	}
	out := make([]string, 0, c.Max-c.Min+1)
	for n := c.Min; n <= c.Max; n++ {
		if c.Ignored(n) {
			continue
		}
		out = append(out, strconv.Itoa(n))
	}
	return out
}

// Ignored reports whether n is excluded from the contest.
func (c Catalog) Ignored(n int) bool {
	return slices.Contains(c.Ignore, n)
}

// Contains reports whether n is inside the catalog range and not ignored.
func (c Catalog) Contains(n int) bool {
	return n >= c.Min && n <= c.Max && !c.Ignored(n)
}

// ValidationError describes the first entry that failed validation.
type ValidationError struct {
	Value   string
	Err     error
	Catalog Catalog
	Count   int
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrTooFewNumbers):
		return fmt.Sprintf("%v: got %d, need at least %d", e.Err, e.Count, GridSize)
	case errors.Is(e.Err, ErrOutOfRange):
		return fmt.Sprintf("%q is %v %d-%d", e.Value, e.Err, e.Catalog.Min, e.Catalog.Max)
	default:
		return fmt.Sprintf("%q is %v", e.Value, e.Err)
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Message renders the error the way it is shown to a user on the terminal.
func (e *ValidationError) Message() string {
	switch {
	case errors.Is(e.Err, ErrTooFewNumbers):
		return fmt.Sprintf("The number of provided numbers were insufficient. Please provide at least %d numbers.", GridSize)
	case errors.Is(e.Err, ErrNotANumber):
		return fmt.Sprintf("The value '%s' not a valid number.", e.Value)
	case errors.Is(e.Err, ErrOutOfRange):
		return fmt.Sprintf("The value '%s' is outside the blocks range. Blocks range: %d-%d",
			e.Value, e.Catalog.Min, e.Catalog.Max)
	case errors.Is(e.Err, ErrIgnoredNumber):
		return fmt.Sprintf("The value '%s' is not available in the contest blocks. Invalid numbers are: %s.",
			e.Value, formatInts(e.Catalog.Ignore))
	default:
		return e.Error()
	}
}

// Validate checks a raw list of block numbers and returns them parsed, in
// input order. The list must hold at least GridSize entries; each entry must be
// an integer inside the catalog range that is not ignored. The first failing
// entry is reported.
func (c Catalog) Validate(raw []string) ([]int, error) {
	if len(raw) < GridSize {
		return nil, &ValidationError{Err: ErrTooFewNumbers, Catalog: c, Count: len(raw)}
	}

	out := make([]int, 0, len(raw))
	for _, entry := range raw {
		n, err := c.Check(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Check validates a single entry: an integer, inside the range, not ignored.
func (c Catalog) Check(entry string) (int, error) {
	value := strings.TrimSpace(entry)
	n, err := strconv.Atoi(value)
	if errors.Is(err, strconv.ErrRange) {
		return 0, &ValidationError{Value: value, Err: ErrOutOfRange, Catalog: c}
	}
	if err != nil {
		return 0, &ValidationError{Value: entry, Err: ErrNotANumber, Catalog: c}
	}
	if n < c.Min || n > c.Max {
		return 0, &ValidationError{Value: value, Err: ErrOutOfRange, Catalog: c}
	}
	if c.Ignored(n) {
		return 0, &ValidationError{Value: value, Err: ErrIgnoredNumber, Catalog: c}
	}
	return n, nil
}

// ParseNumbers splits a comma separated list as given on the command line.
// Empty input yields nil.
func ParseNumbers(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

// Label formats a block number the way it is printed on a tile: zero padded
// to three digits.
func Label(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Key joins block numbers with dashes. It names saved panels.
func Key(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "-")
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
