package intent

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const extraLogPrefix = "intent:extra"

var (
	// ErrUnknownExtraType is returned when an extra carries a type outside
	// the ExtraType enumeration.
	ErrUnknownExtraType = errors.New("unknown extra type")
	// ErrInvalidExtraValue is returned when a value cannot be serialized
	// under its declared type.
	ErrInvalidExtraValue = errors.New("invalid extra value")
)

// ExtraType is the closed set of extra value types.
type ExtraType string

const (
	ExtraString      ExtraType = "string"
	ExtraInt         ExtraType = "int"
	ExtraLong        ExtraType = "long"
	ExtraFloat       ExtraType = "float"
	ExtraBool        ExtraType = "bool"
	ExtraURI         ExtraType = "uri"
	ExtraComponent   ExtraType = "component"
	ExtraIntArray    ExtraType = "int-array"
	ExtraLongArray   ExtraType = "long-array"
	ExtraFloatArray  ExtraType = "float-array"
	ExtraStringArray ExtraType = "string-array"
)

type extraSpec struct {
	flag   string
	format func(v any) (string, error)
}

var extraSpecs = map[ExtraType]extraSpec{
	ExtraString:      {"es", formatString},
	ExtraInt:         {"ei", formatInt(32)},
	ExtraLong:        {"el", formatInt(64)},
	ExtraFloat:       {"ef", formatFloat},
	ExtraBool:        {"ez", formatBool},
	ExtraURI:         {"eu", formatNonEmpty},
	ExtraComponent:   {"ecn", formatNonEmpty},
	ExtraIntArray:    {"eia", formatArray(formatInt(32))},
	ExtraLongArray:   {"ela", formatArray(formatInt(64))},
	ExtraFloatArray:  {"efa", formatArray(formatFloat)},
	ExtraStringArray: {"esa", formatArray(formatString)},
}

// ExtraTypes lists every member of the enumeration in a fixed order.
func ExtraTypes() []ExtraType {
	return []ExtraType{
		ExtraString, ExtraInt, ExtraLong, ExtraFloat, ExtraBool, ExtraURI,
		ExtraComponent, ExtraIntArray, ExtraLongArray, ExtraFloatArray, ExtraStringArray,
	}
}

// ShellFlag returns the flag name (without leading dashes) for the type.
func (t ExtraType) ShellFlag() (string, error) {
	s, ok := extraSpecs[t]
	if !ok {
		return "", fmt.Errorf("%s - %q: %w", extraLogPrefix, string(t), ErrUnknownExtraType)
	}
	return s.flag, nil
}

// Extra is a typed key/value payload attached to a launch.
type Extra struct {
	Key   string    `json:"key" yaml:"key"`
	Type  ExtraType `json:"type" yaml:"type"`
	Value any       `json:"value" yaml:"value"`
}

// ShellFlag returns the flag for the extra's type.
func (e Extra) ShellFlag() (string, error) {
	return e.Type.ShellFlag()
}

// FormatValue serializes the value according to the extra's type.
func (e Extra) FormatValue() (string, error) {
	s, ok := extraSpecs[e.Type]
	if !ok {
		return "", fmt.Errorf("%s - extra %q has type %q: %w", extraLogPrefix, e.Key, string(e.Type), ErrUnknownExtraType)
	}
	out, err := s.format(e.Value)
	if err != nil {
		return "", fmt.Errorf("%s - extra %q (%s): %v: %w", extraLogPrefix, e.Key, e.Type, err, ErrInvalidExtraValue)
	}
	return out, nil
}

func formatString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case nil:
		return "", errors.New("nil value")
	default:
		return fmt.Sprint(x), nil
	}
}

func formatNonEmpty(v any) (string, error) {
	s, err := formatString(v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errors.New("empty value")
	}
	return s, nil
}

func formatInt(bits int) func(v any) (string, error) {
	return func(v any) (string, error) {
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int8:
			n = int64(x)
		case int16:
			n = int64(x)
		case int32:
			n = int64(x)
		case int64:
			n = x
		case uint8:
			n = int64(x)
		case uint16:
			n = int64(x)
		case uint32:
			n = int64(x)
		case float64:
			if x != math.Trunc(x) {
				return "", fmt.Errorf("%v is not an integer", x)
			}
			if x > math.MaxInt64 || x < math.MinInt64 {
				return "", fmt.Errorf("%v overflows int64", x)
			}
			n = int64(x)
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, bits)
			if err != nil {
				return "", err
			}
			n = parsed
		default:
			return "", fmt.Errorf("cannot use %T as integer", v)
		}
		if bits == 32 && (n > math.MaxInt32 || n < math.MinInt32) {
			return "", fmt.Errorf("%d overflows int32", n)
		}
		return strconv.FormatInt(n, 10), nil
	}
}

func formatFloat(v any) (string, error) {
	var f float64
	switch x := v.(type) {
	case float32:
		f = float64(x)
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 32)
		if err != nil {
			return "", err
		}
		f = parsed
	default:
		return "", fmt.Errorf("cannot use %T as float", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%v is not finite", f)
	}
	if math.Abs(f) > math.MaxFloat32 {
		return "", fmt.Errorf("%v overflows float32", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 32), nil
}

func formatBool(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("cannot use %T as bool", v)
	}
}

// formatArray accepts a slice (any element type the element formatter
// understands) or an already comma-separated string.
func formatArray(elem func(any) (string, error)) func(v any) (string, error) {
	return func(v any) (string, error) {
		var items []any
		switch x := v.(type) {
		case []any:
			items = x
		case []string:
			for _, s := range x {
				items = append(items, s)
			}
		case []int:
			for _, n := range x {
				items = append(items, n)
			}
		case []int64:
			for _, n := range x {
				items = append(items, n)
			}
		case []float64:
			for _, f := range x {
				items = append(items, f)
			}
		case string:
			if x == "" {
				return "", nil
			}
			for _, s := range strings.Split(x, ",") {
				items = append(items, s)
			}
		default:
			return "", fmt.Errorf("cannot use %T as array", v)
		}
		parts := make([]string, 0, len(items))
		for i, item := range items {
			s, err := elem(item)
			if err != nil {
				return "", fmt.Errorf("element %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
}
