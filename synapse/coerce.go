package synapse

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

func coerceInt(field string, value any) (int, error) {
	n, err := coerceInt64(field, value)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt || n < math.MinInt {
		return 0, &FieldError{Field: field, Value: value, Err: ErrInvalidValue}
	}
	return int(n), nil
}

func coerceInt64(field string, value any) (int64, error) {
	invalid := &FieldError{Field: field, Value: value, Err: ErrInvalidValue}

	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, invalid
		}
		n, ok := floatToInt64(f)
		if !ok {
			return 0, invalid
		}
		return n, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, invalid
		}
		n, ok := floatToInt64(f)
		if !ok {
			return 0, invalid
		}
		return n, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, invalid
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		n, ok := floatToInt64(rv.Float())
		if !ok {
			return 0, invalid
		}
		return n, nil
	}
	return 0, &FieldError{Field: field, Value: value, Err: ErrInvalidType}
}

// floatToInt64 converts whole numbers in [-2^63, 2^63). NaN, infinities and
// fractions are rejected.
func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

func coerceFloat(field string, value any) (float64, error) {
	invalid := &FieldError{Field: field, Value: value, Err: ErrInvalidValue}

	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalid
		}
		return f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, invalid
		}
		return f, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, &FieldError{Field: field, Value: value, Err: ErrInvalidType}
}

func coerceString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return "", &FieldError{Field: field, Value: value, Err: ErrInvalidType}
}
