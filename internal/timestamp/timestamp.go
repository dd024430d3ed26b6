// Package timestamp turns the many timestamp encodings found in transaction
// feeds into a single time.Time.
package timestamp

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fatali-fataliyev/banking_portal/logging"
)

// Values below this magnitude are seconds since epoch, values at or above are
// milliseconds. The boundary sits around the year 2286 in seconds.
const MillisecondThreshold = 10_000_000_000

// MaxEpochMillis bounds accepted epoch values to +/-100,000,000 days around 1970.
const MaxEpochMillis = 8.64e15

// Fields that may carry a transaction's timestamp, in lookup order.
var Fields = []string{
	"transactionDate",
	"timestamp",
	"createdAt",
	"date",
	"transaction_date",
	"time",
	"txTime",
	"tx_date",
	"created_date",
	"created_at",
	"updatedAt",
	"datetime",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Date-only strings name a UTC calendar day.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
}

type Normalizer struct {
	Location *time.Location
	Now      func() time.Time
}

// NewNormalizer resolves tz to a location; an empty or unknown name falls back to UTC.
func NewNormalizer(tz string) *Normalizer {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logging.Logger.Warnf("unknown timezone %q, falling back to UTC: %v", tz, err)
		} else {
			loc = l
		}
	}
	return &Normalizer{Location: loc, Now: time.Now}
}

// ParseTimestamp never fails: unparseable input resolves to the current time.
func (n *Normalizer) ParseTimestamp(v any) time.Time {
	t, _ := n.Parse(v)
	return t
}

// Parse reports ok=false when v could not be interpreted; t is then the current time.
func (n *Normalizer) Parse(v any) (time.Time, bool) {
	if t, ok := n.parse(v); ok {
		return t, true
	}
	logging.Logger.WithField("value", v).Warn("unable to parse transaction timestamp, using current time")
	return n.now(), false
}

func (n *Normalizer) parse(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return fromEpoch(float64(i))
		}
		if f, err := val.Float64(); err == nil {
			return fromEpoch(f)
		}
		return time.Time{}, false
	case string:
		return n.parseString(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fromEpoch(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromEpoch(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return fromEpoch(rv.Float())
	case reflect.Slice, reflect.Array:
		return n.parseParts(rv)
	}
	return time.Time{}, false
}

func (n *Normalizer) parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if isDigits(s) {
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(num)
	}

	if t, ok := n.parseLayouts(s); ok {
		return t, true
	}
	// SQL style "2024-01-15 10:30:00"
	replaced := strings.Replace(s, " ", "T", 1)
	if t, ok := n.parseLayouts(replaced); ok {
		return t, true
	}
	// drop fractional seconds and anything after them
	if cleaned, _, found := strings.Cut(replaced, "."); found {
		if t, ok := n.parseLayouts(cleaned); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) parseLayouts(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.location()); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseParts handles [year, month, day, hour?, minute?, second?] with a 1-based month.
func (n *Normalizer) parseParts(rv reflect.Value) (time.Time, bool) {
	if rv.Len() < 3 || rv.Len() > 7 {
		return time.Time{}, false
	}
	parts := make([]int, 6)
	for i := 0; i < rv.Len() && i < 6; i++ {
		p, ok := toInt(rv.Index(i).Interface())
		if !ok {
			return time.Time{}, false
		}
		parts[i] = p
	}
	year, month, day := parts[0], parts[1], parts[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, parts[3], parts[4], parts[5], 0, n.location()), true
}

func (n *Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// fromEpoch rejects values whose millisecond magnitude exceeds MaxEpochMillis.
func fromEpoch(num float64) (time.Time, bool) {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return time.Time{}, false
	}
	if math.Abs(num) < MillisecondThreshold {
		sec, frac := math.Modf(num)
		return time.Unix(int64(sec), int64(frac*1e9)), true
	}
	if math.Abs(num) > MaxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(num)), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// Extract returns the first non-nil timestamp field of a decoded transaction.
func Extract(fields map[string]any) any {
	for _, key := range Fields {
		if v, ok := fields[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
