package grid

// equal.go implements the coercive comparison used by Sheet.ByColumn.
//
// Cell values come back from providers as whatever the store holds natively
// (strings from a workbook, int64/float64 from a database, bools, times)
// while lookup values usually arrive as query-string text. LooseEqual lets
// "5" match 5 without callers converting either side.
//
// Rules, applied in order:
//
//	nil      == nil only
//	number   vs number  -> numeric equality
//	string   vs string  -> exact equality
//	bool     vs bool    -> exact equality
//	bool     vs other   -> bool becomes 1 or 0, then compare again
//	number   vs string  -> string parsed as a number ("" is 0); unparsable never matches
//	anything else       -> compare fmt.Sprint forms

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LooseEqual reports whether a and b are equal under coercive comparison.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
		return LooseEqual(boolNumber(ab), b)
	}
	if bb, ok := b.(bool); ok {
		return LooseEqual(a, boolNumber(bb))
	}

	an, aNum := toNumber(a)
	bn, bNum := toNumber(b)
	as, aStr := a.(string)
	bs, bStr := b.(string)

	switch {
	case aNum && bNum:
		return an == bn
	case aStr && bStr:
		return as == bs
	case aNum && bStr:
		n, ok := parseNumber(bs)
		return ok && n == an
	case aStr && bNum:
		n, ok := parseNumber(as)
		return ok && n == bn
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

// IsZero reports whether v is nil, "", false, or a numeric zero or NaN.
// Route options use it to tell an unset id from a real one.
func IsZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	if n, ok := toNumber(v); ok {
		return n == 0 || math.IsNaN(n)
	}
	return false
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// toNumber widens any Go numeric type to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// parseNumber converts cell text to a number. Blank text is zero.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if math.IsInf(f, 0) && strings.TrimLeft(s, "+-") != "Infinity" {
		return 0, false
	}
	return f, true
}
