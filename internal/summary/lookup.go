package summary

import (
	"fmt"
	"strconv"
)

// Status is the outcome of a store lookup.
type Status int

const (
	StatusOK Status = iota
	StatusUnknown
	StatusNoData
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnknown:
		return "unknown attribute"
	case StatusNoData:
		return "no data"
	default:
		return "invalid"
	}
}

// Lookup is the result of Store.Value and friends.
type Lookup struct {
	Status   Status
	Value    any
	ReadTime int64

	timed bool
}

// OK reports whether a value was found.
func (l Lookup) OK() bool { return l.Status == StatusOK }

// Pair returns [readTime, value] for lookups made with the timestamp
// requested, and nil otherwise.
func (l Lookup) Pair() []any {
	if !l.OK() || !l.timed {
		return nil
	}
	return []any{l.ReadTime, l.Value}
}

// Float converts the value to float64 when it is numeric.
func (l Lookup) Float() (float64, bool) {
	if !l.OK() {
		return 0, false
	}
	return toFloat(l.Value)
}

// String renders the value for display, or the status when there is none.
func (l Lookup) String() string {
	if !l.OK() {
		return "-"
	}
	switch v := l.Value.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
