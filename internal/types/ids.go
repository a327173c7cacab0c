package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseID coerces a test/subject/question identifier to its integer
// storage form. Identifiers arrive as path segments or loosely-typed JSON.
func ParseID(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty identifier")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("identifier %q is not an integer", raw)
		}
		return int(f), nil
	}
	return n, nil
}

// FlexInt is an int that unmarshals from a JSON number or a numeric
// string ("3" and 3 are both accepted).
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := ParseID(s)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}
	var num float64
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("identifier must be a number or numeric string: %w", err)
	}
	if num != math.Trunc(num) {
		return fmt.Errorf("identifier %v is not an integer", num)
	}
	*f = FlexInt(num)
	return nil
}

func (f FlexInt) Int() int { return int(f) }
