// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"github.com/safing/entropyrng/log"
)

type (
	// StringOption defines the returned function by GetAsString.
	StringOption func() string
	// StringArrayOption defines the returned function by GetAsStringArray.
	StringArrayOption func() []string
	// IntOption defines the returned function by GetAsInt.
	IntOption func() int64
	// BoolOption defines the returned function by GetAsBool.
	BoolOption func() bool
	// FloatOption defines the returned function by GetAsFloat.
	FloatOption func() float64
)

// activeValue returns the value cache of the highest layer that is set.
func activeValue(name string, requestedType OptionType) *valueCache {
	option, err := GetOption(name)
	if err != nil {
		log.Errorf("config: request for unregistered option: %s", name)
		return nil
	}
	if requestedType != option.OptType && requestedType != optTypeAny {
		log.Errorf("config: bad type: requested %s as %s, but is %s", name, getTypeName(requestedType), getTypeName(option.OptType))
		return nil
	}

	option.Lock()
	defer option.Unlock()

	switch {
	case option.activeValue != nil:
		return option.activeValue
	case option.activeDefaultValue != nil:
		return option.activeDefaultValue
	default:
		return option.activeFallbackValue
	}
}

// IsSet returns whether the option has a value in the user config or the
// runtime default config, as opposed to only its registered default.
func IsSet(name string) bool {
	option, err := GetOption(name)
	if err != nil {
		return false
	}

	option.Lock()
	defer option.Unlock()
	return option.activeValue != nil || option.activeDefaultValue != nil
}

// cachedGetter returns a getter that only looks up the option again after
// the configuration changed.
func cachedGetter[T any](name string, optType OptionType, fallback T, pick func(*valueCache) T) func() T {
	var (
		valid = getValidityFlag()
		value T
	)
	load := func() {
		if vc := activeValue(name, optType); vc != nil {
			value = pick(vc)
		} else {
			value = fallback
		}
	}
	load()

	return func() T {
		if !valid.IsSet() {
			valid = getValidityFlag()
			load()
		}
		return value
	}
}

// GetAsString returns a function that returns the wanted string with high performance.
func GetAsString(name string, fallback string) StringOption {
	return cachedGetter(name, OptTypeString, fallback, func(vc *valueCache) string { return vc.stringVal })
}

// GetAsStringArray returns a function that returns the wanted string with high performance.
func GetAsStringArray(name string, fallback []string) StringArrayOption {
	return cachedGetter(name, OptTypeStringArray, fallback, func(vc *valueCache) []string { return vc.stringArrayVal })
}

// GetAsInt returns a function that returns the wanted int with high performance.
func GetAsInt(name string, fallback int64) IntOption {
	return cachedGetter(name, OptTypeInt, fallback, func(vc *valueCache) int64 { return vc.intVal })
}

// GetAsBool returns a function that returns the wanted bool with high performance.
func GetAsBool(name string, fallback bool) BoolOption {
	return cachedGetter(name, OptTypeBool, fallback, func(vc *valueCache) bool { return vc.boolVal })
}

// GetAsFloat returns a function that returns the wanted float with high performance.
func GetAsFloat(name string, fallback float64) FloatOption {
	return cachedGetter(name, OptTypeFloat, fallback, func(vc *valueCache) float64 { return vc.floatVal })
}
