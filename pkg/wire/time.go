package wire

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 strings, zone-less ISO timestamps (interpreted
// in loc), epoch milliseconds as a number or numeric string, and
// [year, month, day, hour, minute, second, nanos] arrays.
func ParseTime(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	switch t := v.(type) {
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return time.Time{}, ErrBadTime
			}
			ms = int64(f)
		}
		return time.UnixMilli(ms), nil
	case float64:
		return time.UnixMilli(int64(t)), nil
	case int64:
		return time.UnixMilli(t), nil
	case string:
		return parseTimeString(strings.TrimSpace(t), loc)
	case []any:
		return parseTimeArray(t, loc)
	}
	return time.Time{}, ErrBadTime
}

// TimeAt resolves the first path holding a parsable timestamp.
func TimeAt(o Object, loc *time.Location, paths ...string) (time.Time, bool) {
	for _, p := range paths {
		v, ok := o.Get(p)
		if !ok {
			continue
		}
		if t, err := ParseTime(v, loc); err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimeString(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrBadTime
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTime
}

func parseTimeArray(parts []any, loc *time.Location) (time.Time, error) {
	if len(parts) < 3 {
		return time.Time{}, ErrBadTime
	}
	vals := make([]int, 7)
	for i := 0; i < len(parts) && i < len(vals); i++ {
		s, ok := Scalar(parts[i])
		if !ok {
			return time.Time{}, ErrBadTime
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, ErrBadTime
		}
		vals[i] = n
	}
	return time.Date(vals[0], time.Month(vals[1]), vals[2], vals[3], vals[4], vals[5], vals[6], loc), nil
}
