// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"math"
	"reflect"
)

type valueCache struct {
	stringVal      string
	stringArrayVal []string
	intVal         int64
	boolVal        bool
	floatVal       float64
}

func (vc *valueCache) getData(opt *Option) interface{} {
	switch opt.OptType {
	case OptTypeBool:
		return vc.boolVal
	case OptTypeInt:
		return vc.intVal
	case OptTypeFloat:
		return vc.floatVal
	case OptTypeString:
		return vc.stringVal
	case OptTypeStringArray:
		return vc.stringArrayVal
	default:
		return nil
	}
}

// toNumber converts any integer or float kind to float64 and reports whether
// the value is an integer kind. uint64 is left out, as it does not fit an int64.
func toNumber(value interface{}) (f float64, isInt bool, ok bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return float64(rv.Uint()), true, true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), false, true
	default:
		return 0, false, false
	}
}

func validateNumber(option *Option, value interface{}, f float64, isInt bool) (*valueCache, error) {
	if option.OptType != OptTypeInt && option.OptType != OptTypeFloat {
		return nil, newInvalidValueError(option.Key, fmt.Sprintf("%T", value), "expected type "+getTypeName(option.OptType))
	}
	// %v formats ints without and floats with their decimals
	if option.compiledRegex != nil && !option.compiledRegex.MatchString(fmt.Sprintf("%v", value)) {
		return nil, newInvalidValueError(option.Key, value, "validation regex failed")
	}

	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return nil, newInvalidValueError(option.Key, value, "not a finite number")
	case option.OptType == OptTypeFloat:
		return &valueCache{floatVal: f}, nil
	case isInt:
		return &valueCache{intVal: reflect.ValueOf(value).Convert(reflect.TypeOf(int64(0))).Int()}, nil
	case math.Trunc(f) == f && math.Abs(f) < 1<<63:
		// whole floats, as decoded from JSON and YAML
		return &valueCache{intVal: int64(f)}, nil
	default:
		return nil, newInvalidValueError(option.Key, value, "failed to convert float to int64")
	}
}

func validateValue(option *Option, value interface{}) (*valueCache, error) {
	switch v := value.(type) {
	case string:
		if option.OptType != OptTypeString {
			return nil, newInvalidValueError(option.Key, fmt.Sprintf("%T", v), "expected type "+getTypeName(option.OptType))
		}
		if option.compiledRegex != nil {
			if !option.compiledRegex.MatchString(v) {
				return nil, newInvalidValueError(option.Key, v, "validation regex failed")
			}
		}
		return &valueCache{stringVal: v}, nil
	case []interface{}:
		vConverted := make([]string, len(v))
		for pos, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return nil, newInvalidValueError(option.Key, fmt.Sprintf("element %+v at index %d", entry, pos), "not a string")
			}
			vConverted[pos] = s
		}
		// continue to next case
		return validateValue(option, vConverted)
	case []string:
		if option.OptType != OptTypeStringArray {
			return nil, newInvalidValueError(option.Key, fmt.Sprintf("%T", v), "expected type []string")
		}
		if option.compiledRegex != nil {
			for pos, entry := range v {
				if !option.compiledRegex.MatchString(entry) {
					return nil, newInvalidValueError(option.Key, fmt.Sprintf("element %s at index %d", entry, pos), "validation regex failed")
				}
			}
		}
		return &valueCache{stringArrayVal: v}, nil
	case bool:
		if option.OptType != OptTypeBool {
			return nil, newInvalidValueError(option.Key, fmt.Sprintf("%T", v), "expected type bool")
		}
		return &valueCache{boolVal: v}, nil
	default:
		if f, isInt, ok := toNumber(v); ok {
			return validateNumber(option, v, f, isInt)
		}
		return nil, newInvalidValueError(option.Key, fmt.Sprintf("%T", v), "invalid value")
	}
}
