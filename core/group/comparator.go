package group

import (
	"database/sql/driver"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

// Comparator is the operator used to test a student's incident count against a group's threshold.
// The zero value is invalid.
type Comparator int

const (
	LessThan Comparator = iota + 1
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	Equal
)

var (
	comparatorSymbols = map[Comparator]string{
		LessThan:       "<",
		LessOrEqual:    "<=",
		GreaterThan:    ">",
		GreaterOrEqual: ">=",
		Equal:          "=",
	}
	symbolComparators = map[string]Comparator{
		"<":  LessThan,
		"<=": LessOrEqual,
		">":  GreaterThan,
		">=": GreaterOrEqual,
		"=":  Equal,
	}

	errUnknownComparator = errors.New("must be one of <, <=, >, >= or =")
)

// ParseComparator maps an operator symbol to its Comparator.
func ParseComparator(s string) (Comparator, error) {
	if c, ok := symbolComparators[core.CleanString(s)]; ok {
		return c, nil
	}
	return 0, errors.Wrapf(errUnknownComparator, "ltmt %q", s)
}

func (c Comparator) IsValid() bool {
	_, ok := comparatorSymbols[c]
	return ok
}

func (c Comparator) String() string {
	return comparatorSymbols[c]
}

// Compare reports whether `count <c> threshold` holds.
func (c Comparator) Compare(count, threshold int) bool {
	switch c {
	case LessThan:
		return count < threshold
	case LessOrEqual:
		return count <= threshold
	case GreaterThan:
		return count > threshold
	case GreaterOrEqual:
		return count >= threshold
	case Equal:
		return count == threshold
	}
	return false
}

// SQL returns the SQL operator for c, taken from a fixed table.
// It panics on an invalid Comparator so that no unchecked text ever reaches a query.
func (c Comparator) SQL() string {
	sym, ok := comparatorSymbols[c]
	if !ok {
		panic(fmt.Sprintf("group: invalid comparator %d", int(c)))
	}
	return sym
}

func (c Comparator) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Comparator) UnmarshalText(text []byte) error {
	cmp, err := ParseComparator(string(text))
	if err != nil {
		return err
	}
	*c = cmp
	return nil
}

// Scan implements the sql.Scanner interface.
// Unknown symbols scan to the zero Comparator so that the rule evaluator can report them.
func (c *Comparator) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.Errorf("group: cannot scan %T into Comparator", value)
	}
	*c = symbolComparators[core.CleanString(s)]
	return nil
}

// Value implements the driver.Valuer interface.
func (c Comparator) Value() (driver.Value, error) {
	if !c.IsValid() {
		return nil, errors.Wrapf(errUnknownComparator, "comparator %d", int(c))
	}
	return c.String(), nil
}
