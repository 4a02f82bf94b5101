package txorm

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func literalCodec(val any) Codec {
	switch val.(type) {
	case []byte:
		return RawStrCodec{}
	case string:
		return UnicodeCodec{}
	case bool:
		return BoolCodec{}
	case time.Duration:
		return TimeDeltaCodec{}
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return IntCodec{}
	case uint, uint64:
		return UintCodec{}
	case float32, float64:
		return FloatCodec{}
	case decimal.Decimal:
		return DecimalCodec{}
	case *big.Rat:
		return FractionCodec{}
	case time.Time:
		return DateTimeCodec{}
	case Date:
		return DateCodec{}
	case TimeOfDay:
		return TimeCodec{}
	case uuid.UUID:
		return UUIDCodec{}
	default:
		return nil
	}
}

func isLiteral(val any) bool { return literalCodec(val) != nil }

// Stores values as-is.
type AnyCodec struct{}

func (AnyCodec) ParseSet(val any, _ bool) (any, error) { return val, nil }
func (AnyCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Accepts booleans and numbers; numbers are true when non-zero.
type BoolCodec struct{}

func (BoolCodec) ParseSet(val any, _ bool) (any, error) {
	if val, ok := val.(bool); ok {
		return val, nil
	}
	num, ok := toFloat(val)
	if !ok {
		return nil, errType(`setting bool variable`, `expected bool, found %#v`, val)
	}
	return num != 0, nil
}

func (BoolCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Accepts numbers, truncating fractions. Stores `int64`.
type IntCodec struct{}

func (IntCodec) ParseSet(val any, _ bool) (any, error) {
	const while = `setting int variable`

	if num, ok := toInt(val); ok {
		return num, nil
	}
	if num, ok := toUint(val); ok {
		return nil, errValue(while, `%d overflows int64`, num)
	}
	if num, ok := toFloat(val); ok {
		if num < math.MinInt64 || num >= math.MaxInt64 {
			return nil, errValue(while, `%v overflows int64`, num)
		}
		return int64(num), nil
	}
	return nil, errType(while, `expected int, found %#v`, val)
}

func (IntCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Accepts non-negative numbers, truncating fractions. Stores `uint64`.
type UintCodec struct{}

func (UintCodec) ParseSet(val any, _ bool) (any, error) {
	const while = `setting uint variable`

	if num, ok := toUint(val); ok {
		return num, nil
	}
	if num, ok := toInt(val); ok {
		if num < 0 {
			return nil, errValue(while, `%d is negative`, num)
		}
		return uint64(num), nil
	}
	if num, ok := toFloat(val); ok {
		if num < 0 || num >= math.MaxUint64 {
			return nil, errValue(while, `%v is out of range`, num)
		}
		return uint64(num), nil
	}
	return nil, errType(while, `expected uint, found %#v`, val)
}

func (UintCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Accepts numbers. Stores `float64`.
type FloatCodec struct{}

func (FloatCodec) ParseSet(val any, _ bool) (any, error) {
	if num, ok := toFloat(val); ok {
		return num, nil
	}
	return nil, errType(`setting float variable`, `expected float, found %#v`, val)
}

func (FloatCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

/*
Stores `decimal.Decimal`. Accepts decimals and integers; database values may
also be strings. Renders a string when sent to the database.
*/
type DecimalCodec struct{}

func (DecimalCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case decimal.Decimal:
		return val, nil
	case string:
		if !fromDB {
			break
		}
		out, err := decimal.NewFromString(val)
		if err != nil {
			return nil, errValue(`setting decimal variable`, `%w`, err)
		}
		return out, nil
	case []byte:
		if !fromDB {
			break
		}
		out, err := decimal.NewFromString(string(val))
		if err != nil {
			return nil, errValue(`setting decimal variable`, `%w`, err)
		}
		return out, nil
	}
	if num, ok := toInt(val); ok {
		return decimal.NewFromInt(num), nil
	}
	if num, ok := toUint(val); ok {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(num), 0), nil
	}
	return nil, errType(`setting decimal variable`, `expected decimal, found %#v`, val)
}

func (DecimalCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return val.(decimal.Decimal).String(), nil
	}
	return val, nil
}

/*
Stores `*big.Rat`. Accepts rationals, integers, and decimals; database values
may also be strings such as "3/4" or "0.75". Renders "n/d" (or "n" for whole
numbers) when sent to the database.
*/
type FractionCodec struct{}

func (FractionCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case *big.Rat:
		if val == nil {
			break
		}
		return new(big.Rat).Set(val), nil
	case decimal.Decimal:
		return val.Rat(), nil
	case string:
		if !fromDB {
			break
		}
		out, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, errValue(`setting fraction variable`, `invalid fraction %q`, val)
		}
		return out, nil
	}
	if num, ok := toInt(val); ok {
		return new(big.Rat).SetInt64(num), nil
	}
	if num, ok := toUint(val); ok {
		return new(big.Rat).SetUint64(num), nil
	}
	return nil, errType(`setting fraction variable`, `expected fraction, found %#v`, val)
}

func (FractionCodec) ParseGet(val any, toDB bool) (any, error) {
	rat := val.(*big.Rat)
	if toDB {
		return rat.RatString(), nil
	}
	return new(big.Rat).Set(rat), nil
}

// Stores `[]byte`. Database values may also be strings.
type RawStrCodec struct{}

func (RawStrCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case []byte:
		return append([]byte(nil), val...), nil
	case string:
		if fromDB {
			return []byte(val), nil
		}
	}
	return nil, errType(`setting raw string variable`, `expected []byte, found %#v`, val)
}

func (RawStrCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Stores `string`. Database values may also be byte slices.
type UnicodeCodec struct{}

func (UnicodeCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case string:
		return val, nil
	case []byte:
		if fromDB {
			return string(val), nil
		}
	}
	return nil, errType(`setting unicode variable`, `expected string, found %#v`, val)
}

func (UnicodeCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

/*
Stores `time.Time`. Database values may be strings in the form
"YYYY-MM-DD HH:MM[:SS[.ffffff]]". Numbers are interpreted as UTC unix
timestamps. When `Location` is set, naive database values are placed in it and
other values are converted to it.
*/
type DateTimeCodec struct{ Location *time.Location }

func (self DateTimeCodec) ParseSet(val any, fromDB bool) (any, error) {
	const while = `setting datetime variable`

	if fromDB {
		var out time.Time
		switch val := val.(type) {
		case time.Time:
			out = val
			if self.Location != nil {
				out = out.In(self.Location)
			}
			return out, nil
		case []byte:
			return self.parse(string(val))
		case string:
			return self.parse(val)
		default:
			return nil, errType(while, `expected datetime, found %#v`, val)
		}
	}

	var out time.Time
	switch val := val.(type) {
	case time.Time:
		out = val
	default:
		num, ok := toFloat(val)
		if !ok {
			return nil, errType(while, `expected datetime, found %#v`, val)
		}
		sec, frac := math.Modf(num)
		out = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	if self.Location != nil {
		out = out.In(self.Location)
	}
	return out, nil
}

func (self DateTimeCodec) parse(src string) (any, error) {
	const while = `parsing datetime`

	src = strings.TrimSpace(src)
	sep := strings.IndexAny(src, ` T`)
	if sep < 0 {
		return nil, errValue(while, `unknown date/time format: %q`, src)
	}

	date, err := parseDate(src[:sep])
	if err != nil {
		return nil, err
	}
	tod, err := parseTimeOfDay(src[sep+1:])
	if err != nil {
		return nil, err
	}

	loc := self.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year, date.Month, date.Day, tod.Hour, tod.Minute, tod.Second, tod.Nanosecond, loc), nil
}

func (DateTimeCodec) ParseGet(val any, _ bool) (any, error) { return val, nil }

// Calendar date without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Date part of the given time, in its own location.
func DateOf(val time.Time) Date {
	year, month, day := val.Date()
	return Date{year, month, day}
}

// Implement `fmt.Stringer`. Renders "YYYY-MM-DD".
func (self Date) String() string {
	return fmt.Sprintf(`%04d-%02d-%02d`, self.Year, self.Month, self.Day)
}

/*
Stores `Date`. Accepts `time.Time` by taking its date part; database values may
be strings in the form "YYYY-MM-DD", optionally followed by a time which is
ignored. Renders "YYYY-MM-DD" when sent to the database.
*/
type DateCodec struct{}

func (DateCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case Date:
		return val, nil
	case time.Time:
		return DateOf(val), nil
	case string:
		if fromDB {
			return parseDate(datePart(val))
		}
	case []byte:
		if fromDB {
			return parseDate(datePart(string(val)))
		}
	}
	return nil, errType(`setting date variable`, `expected date, found %#v`, val)
}

func (DateCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return val.(Date).String(), nil
	}
	return val, nil
}

// Time of day without date or location.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// Time-of-day part of the given time.
func TimeOfDayOf(val time.Time) TimeOfDay {
	return TimeOfDay{val.Hour(), val.Minute(), val.Second(), val.Nanosecond()}
}

// Implement `fmt.Stringer`. Renders "HH:MM:SS" with optional microseconds.
func (self TimeOfDay) String() string {
	out := fmt.Sprintf(`%02d:%02d:%02d`, self.Hour, self.Minute, self.Second)
	if self.Nanosecond != 0 {
		out += fmt.Sprintf(`.%06d`, self.Nanosecond/1000)
	}
	return out
}

/*
Stores `TimeOfDay`. Accepts `time.Time` by taking its time part; database values
may be strings in the form "HH:MM[:SS[.ffffff]]", optionally preceded by a date
which is ignored, or durations since midnight.
*/
type TimeCodec struct{}

func (TimeCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case TimeOfDay:
		return val, nil
	case time.Time:
		return TimeOfDayOf(val), nil
	case string:
		if fromDB {
			return parseTimeOfDay(timePart(val))
		}
	case []byte:
		if fromDB {
			return parseTimeOfDay(timePart(string(val)))
		}
	case time.Duration:
		if fromDB {
			return TimeOfDayOf(time.Time{}.Add(val)), nil
		}
	}
	return nil, errType(`setting time variable`, `expected time, found %#v`, val)
}

func (TimeCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return val.(TimeOfDay).String(), nil
	}
	return val, nil
}

/*
Stores `time.Duration`. Database values may be interval strings such as
"1 day 02:03:04.5", "3 hours 15 min" or "42" (seconds). Renders an interval
string when sent to the database.
*/
type TimeDeltaCodec struct{}

func (TimeDeltaCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case time.Duration:
		return val, nil
	case string:
		if fromDB {
			return ParseInterval(val)
		}
	case []byte:
		if fromDB {
			return ParseInterval(string(val))
		}
	}
	return nil, errType(`setting timedelta variable`, `expected duration, found %#v`, val)
}

func (TimeDeltaCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return FormatInterval(val.(time.Duration)), nil
	}
	return val, nil
}

// Stores `uuid.UUID`. Database values may be strings. Renders a string when
// sent to the database.
type UUIDCodec struct{}

func (UUIDCodec) ParseSet(val any, fromDB bool) (any, error) {
	switch val := val.(type) {
	case uuid.UUID:
		return val, nil
	case string:
		if !fromDB {
			break
		}
		out, err := uuid.Parse(val)
		if err != nil {
			return nil, errValue(`setting uuid variable`, `%w`, err)
		}
		return out, nil
	case []byte:
		if !fromDB {
			break
		}
		out, err := uuid.ParseBytes(val)
		if err != nil {
			return nil, errValue(`setting uuid variable`, `%w`, err)
		}
		return out, nil
	}
	return nil, errType(`setting uuid variable`, `expected uuid, found %#v`, val)
}

func (UUIDCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return val.(uuid.UUID).String(), nil
	}
	return val, nil
}

/*
Maps application values to database values. `Set` maps application values to
database values on assignment; `Get` maps them back on read. Database values
pass through unmapped in both directions.
*/
type EnumCodec struct {
	Get map[any]any
	Set map[any]any
}

func (self EnumCodec) ParseSet(val any, fromDB bool) (any, error) {
	if fromDB {
		return val, nil
	}
	out, ok := self.Set[val]
	if !ok || out == nil {
		return nil, errValue(`setting enum variable`, `invalid enum value: %#v`, val)
	}
	return out, nil
}

func (self EnumCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return val, nil
	}
	out, ok := self.Get[val]
	if !ok || out == nil {
		return nil, errValue(`getting enum variable`, `invalid enum value: %#v`, val)
	}
	return out, nil
}

// Restricts values to a fixed set of strings, as in MySQL `ENUM` columns.
type MySQLEnumCodec struct{ Values map[string]struct{} }

// Shortcut for building a `MySQLEnumCodec` from a list of allowed values.
func MySQLEnum(vals ...string) MySQLEnumCodec {
	set := make(map[string]struct{}, len(vals))
	for _, val := range vals {
		set[val] = struct{}{}
	}
	return MySQLEnumCodec{set}
}

func (self MySQLEnumCodec) ParseSet(val any, fromDB bool) (any, error) {
	if fromDB {
		return val, nil
	}
	return self.check(val)
}

func (self MySQLEnumCodec) ParseGet(val any, toDB bool) (any, error) {
	if toDB {
		return fmt.Sprint(val), nil
	}
	return self.check(val)
}

func (self MySQLEnumCodec) check(val any) (any, error) {
	str, ok := val.(string)
	if ok {
		_, ok = self.Values[str]
	}
	if !ok {
		return nil, errValue(`checking enum variable`, `invalid enum value: %v`, val)
	}
	return str, nil
}

// Date half of "YYYY-MM-DD HH:MM:SS", or the whole input without a space.
func datePart(src string) string {
	out, _, _ := strings.Cut(strings.TrimSpace(src), ` `)
	return out
}

// Time half of "YYYY-MM-DD HH:MM:SS", or the whole input without a space.
func timePart(src string) string {
	src = strings.TrimSpace(src)
	_, out, ok := strings.Cut(src, ` `)
	if !ok {
		return src
	}
	return out
}

func parseDate(src string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(src), `-`)
	if len(parts) != 3 {
		return Date{}, errValue(`parsing date`, `unknown date format: %q`, src)
	}

	var nums [3]int
	for ind, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, errValue(`parsing date`, `unknown date format: %q`, src)
		}
		nums[ind] = num
	}
	return Date{nums[0], time.Month(nums[1]), nums[2]}, nil
}

func parseTimeOfDay(src string) (TimeOfDay, error) {
	const while = `parsing time`

	src = strings.TrimSpace(src)
	parts := strings.Split(src, `:`)
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, errValue(while, `unknown time format: %q`, src)
	}
	if len(parts) == 2 {
		parts = append(parts, `0`)
	}

	var out TimeOfDay
	var err error

	if out.Hour, err = strconv.Atoi(parts[0]); err != nil {
		return TimeOfDay{}, errValue(while, `unknown time format: %q`, src)
	}
	if out.Minute, err = strconv.Atoi(parts[1]); err != nil {
		return TimeOfDay{}, errValue(while, `unknown time format: %q`, src)
	}

	sec, frac, _ := strings.Cut(parts[2], `.`)
	if out.Second, err = strconv.Atoi(sec); err != nil {
		return TimeOfDay{}, errValue(while, `unknown time format: %q`, src)
	}
	if frac != `` {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat(`0`, 9-len(frac))
		if out.Nanosecond, err = strconv.Atoi(frac); err != nil {
			return TimeOfDay{}, errValue(while, `unknown time format: %q`, src)
		}
	}
	return out, nil
}

func (self TimeOfDay) duration() time.Duration {
	return time.Duration(self.Hour)*time.Hour +
		time.Duration(self.Minute)*time.Minute +
		time.Duration(self.Second)*time.Second +
		time.Duration(self.Nanosecond)
}

var (
	intervalTokens = regexp.MustCompile(`[\s,]*([-+]?(?:\d\d?:\d\d?(?::\d\d?)?(?:\.\d+)?|\d+(?:\.\d+)?))[\s,]*`)

	intervalUnits = func() map[string]time.Duration {
		out := map[string]time.Duration{}
		for _, entry := range []struct {
			names string
			unit  time.Duration
		}{
			{`d day days`, 24 * time.Hour},
			{`h hour hours`, time.Hour},
			{`m min minute minutes`, time.Minute},
			{`s sec second seconds`, time.Second},
			{`ms millisecond milliseconds`, time.Millisecond},
			{`microsecond microseconds`, time.Microsecond},
		} {
			for _, name := range strings.Fields(entry.names) {
				out[name] = entry.unit
			}
		}
		return out
	}()
)

/*
Parses an interval string as produced by database drivers. Accepts sequences of
"<number> <unit>" pairs and "HH:MM[:SS[.f]]" groups. A number directly followed
by a time group counts as days, and a trailing number without a unit counts as
seconds.
*/
func ParseInterval(src string) (time.Duration, error) {
	const while = `parsing interval`

	var tokens []string
	prev := 0
	for _, match := range intervalTokens.FindAllStringSubmatchIndex(src, -1) {
		if match[0] > prev {
			tokens = append(tokens, src[prev:match[0]])
		}
		tokens = append(tokens, src[match[2]:match[3]])
		prev = match[1]
	}
	if prev < len(src) {
		tokens = append(tokens, src[prev:])
	}

	var out time.Duration
	var value *float64

	for _, token := range tokens {
		switch {
		case token == ``:

		case strings.Contains(token, `:`):
			if value != nil {
				out += time.Duration(*value * float64(24*time.Hour))
				value = nil
			}
			neg := strings.HasPrefix(token, `-`)
			tod, err := parseTimeOfDay(strings.TrimLeft(token, `+-`))
			if err != nil {
				return 0, err
			}
			if neg {
				out -= tod.duration()
			} else {
				out += tod.duration()
			}

		case value == nil:
			num, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return 0, errValue(while, `expected an interval value rather than %q in interval %q`, token, src)
			}
			value = &num

		default:
			unit, ok := intervalUnits[token]
			if !ok {
				return 0, errValue(while, `unsupported interval unit %q in interval %q`, token, src)
			}
			out += time.Duration(*value * float64(unit))
			value = nil
		}
	}

	if value != nil {
		out += time.Duration(*value * float64(time.Second))
	}
	return out, nil
}

/*
Renders a duration as an interval string understood by `ParseInterval` and by
PostgreSQL, for example "1 days 02:03:04.000005".
*/
func FormatInterval(val time.Duration) string {
	var buf strings.Builder
	sign := ``
	rem := uint64(val)
	if val < 0 {
		sign = `-`
		rem = -rem
	}

	const (
		day    = uint64(24 * time.Hour)
		hour   = uint64(time.Hour)
		minute = uint64(time.Minute)
		second = uint64(time.Second)
	)

	days := rem / day
	rem %= day
	hours := rem / hour
	rem %= hour
	minutes := rem / minute
	rem %= minute
	seconds := rem / second
	rem %= second

	if days > 0 {
		fmt.Fprintf(&buf, `%s%d days `, sign, days)
	}
	fmt.Fprintf(&buf, `%s%02d:%02d:%02d`, sign, hours, minutes, seconds)
	if rem > 0 {
		fmt.Fprintf(&buf, `.%06d`, rem/uint64(time.Microsecond))
	}
	return buf.String()
}

func toInt(val any) (int64, bool) {
	switch val := val.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return uintToInt(uint64(val))
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return uintToInt(val)
	default:
		return 0, false
	}
}

func uintToInt(val uint64) (int64, bool) {
	if val > math.MaxInt64 {
		return 0, false
	}
	return int64(val), true
}

// Unsigned integers only, including those that don't fit into `int64`.
func toUint(val any) (uint64, bool) {
	switch val := val.(type) {
	case uint:
		return uint64(val), true
	case uint8:
		return uint64(val), true
	case uint16:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case uint64:
		return val, true
	default:
		return 0, false
	}
}

func toFloat(val any) (float64, bool) {
	if num, ok := toInt(val); ok {
		return float64(num), true
	}
	if num, ok := toUint(val); ok {
		return float64(num), true
	}
	switch val := val.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case decimal.Decimal:
		out, _ := val.Float64()
		return out, true
	default:
		return 0, false
	}
}
