package object

import (
	"fmt"
	"math"
)

// FromGo converts a Go value to a Value. Integers must fit in an int32;
// float64 values are narrowed to float32.
func FromGo(value interface{}) (*Value, error) {
	switch v := value.(type) {
	case *Value:
		return v, nil
	case int32:
		return NewInt(v), nil
	case int:
		return intFromGo(int64(v))
	case int64:
		return intFromGo(v)
	case float32:
		return NewFloat(v), nil
	case float64:
		return NewFloat(float32(v)), nil
	case string:
		return NewText(v), nil
	default:
		return nil, fmt.Errorf("type error: unsupported value type %T", value)
	}
}

func intFromGo(v int64) (*Value, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("value error: integer %d does not fit in an int32", v)
	}
	return NewInt(int32(v)), nil
}

// FromGoAs converts a Go value to a Value of the given dtype. Integral Go
// values are accepted for FLOAT and whole float64 values for INT, so that
// loosely typed sources (TOML, JSON) can describe either.
func FromGoAs(dtype DType, value interface{}) (*Value, error) {
	switch dtype {
	case INT:
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("value error: %v is not an integer", v)
			}
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("value error: integer %v does not fit in an int32", v)
			}
			return NewInt(int32(v)), nil
		case string:
			return nil, fmt.Errorf("type error: expected an int (string given)")
		}
	case FLOAT:
		switch v := value.(type) {
		case int64:
			return NewFloat(float32(v)), nil
		case int:
			return NewFloat(float32(v)), nil
		case string:
			return nil, fmt.Errorf("type error: expected a float (string given)")
		}
	case TEXT:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("type error: expected a string (%T given)", value)
		}
		return NewText(s), nil
	default:
		return nil, fmt.Errorf("type error: invalid dtype %s", dtype)
	}
	obj, err := FromGo(value)
	if err != nil {
		return nil, err
	}
	if obj.dtype != dtype {
		return nil, fmt.Errorf("type error: expected %s (%s given)", dtype, obj.dtype)
	}
	return obj, nil
}
