package sheetquery

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/sheetquery/domain/model"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// coerceValue converts a raw cell value to t with the default conversion rules.
// Empty cells become the zero value, or nil for pointer types.
func coerceValue(raw string, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		if strings.TrimSpace(raw) == "" {
			return reflect.Zero(t), nil
		}
		elem, err := coerceValue(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) && t != timeType {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		return ptr.Elem(), nil
	}

	if t.Kind() == reflect.String {
		return reflect.ValueOf(raw).Convert(t), nil
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return reflect.Zero(t), nil
	}

	switch t {
	case timeType:
		parsed, err := parseTime(trimmed)
		if err != nil {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		return reflect.ValueOf(parsed), nil
	case durationType:
		d, err := time.ParseDuration(trimmed)
		if err != nil {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		return reflect.ValueOf(d), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := cast.ToBoolE(trimmed)
		if err != nil {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := parseInt(trimmed)
		if err != nil || v.OverflowInt(n) {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := parseUint(trimmed)
		if err != nil || v.OverflowUint(n) {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(trimmed)
		if err != nil || v.OverflowFloat(f) {
			return reflect.Value{}, conversionError(raw, t, err)
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, conversionError(raw, t, fmt.Errorf("unsupported type %s", t))
	}
	return v, nil
}

// parseInt accepts decimal integers and floats without a fractional part,
// which is how spreadsheets often store whole numbers.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, which no int64 holds.
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s is not a whole number in the int64 range", s)
	}
	return int64(f), nil
}

// parseUint is parseInt for unsigned values.
func parseUint(s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%s is not a whole number in the uint64 range", s)
	}
	return uint64(f), nil
}

// parseTime accepts the datetime patterns of column inference and Excel serial dates.
func parseTime(s string) (time.Time, error) {
	if t, ok := model.ParseDatetime(s); ok {
		return t, nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return excelize.ExcelDateToTime(serial, false)
}

func conversionError(raw string, t reflect.Type, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %q to %s: out of range", ErrConversion, raw, t)
	}
	return fmt.Errorf("%w: %q to %s: %w", ErrConversion, raw, t, err)
}

// assignResult stores a transform result in a value of type t.
// A nil result yields the zero value.
func assignResult(result any, t reflect.Type) (reflect.Value, error) {
	if result == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(result)
	rt := rv.Type()
	switch {
	case rt.AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rt.AssignableTo(t.Elem()):
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	case rt.Kind() == reflect.String:
		return coerceValue(rv.String(), t)
	case isNumeric(rt) && isNumeric(t):
		return convertNumber(rv, t)
	default:
		return reflect.Value{}, fmt.Errorf("%w: result of type %s cannot be assigned to %s", ErrTransformFailed, rt, t)
	}
}

// convertNumber converts the number rv to t. Values that t cannot hold
// exactly, such as 300 for int8 or 3.9 for int, fail with ErrTransformFailed.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	lossy := fmt.Errorf("%w: %v does not fit in %s", ErrTransformFailed, rv.Interface(), t)

	switch {
	case v.CanInt():
		switch {
		case rv.CanInt():
			if v.OverflowInt(rv.Int()) {
				return reflect.Value{}, lossy
			}
			v.SetInt(rv.Int())
		case rv.CanUint():
			u := rv.Uint()
			if u > math.MaxInt64 || v.OverflowInt(int64(u)) {
				return reflect.Value{}, lossy
			}
			v.SetInt(int64(u))
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 || v.OverflowInt(int64(f)) {
				return reflect.Value{}, lossy
			}
			v.SetInt(int64(f))
		}
	case v.CanUint():
		switch {
		case rv.CanInt():
			n := rv.Int()
			if n < 0 || v.OverflowUint(uint64(n)) {
				return reflect.Value{}, lossy
			}
			v.SetUint(uint64(n))
		case rv.CanUint():
			if v.OverflowUint(rv.Uint()) {
				return reflect.Value{}, lossy
			}
			v.SetUint(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || v.OverflowUint(uint64(f)) {
				return reflect.Value{}, lossy
			}
			v.SetUint(uint64(f))
		}
	default:
		var f float64
		switch {
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		if v.OverflowFloat(f) {
			return reflect.Value{}, lossy
		}
		v.SetFloat(f)
	}
	return v, nil
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
