// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"regexp"
	"sync"

	"github.com/tidwall/sjson"
)

// OptionType defines the value type of an option.
type OptionType uint8

// Various attribute options. Use ExternalOptType for extended types in the frontend.
const (
	optTypeAny         OptionType = 0
	OptTypeString      OptionType = 1
	OptTypeStringArray OptionType = 2
	OptTypeInt         OptionType = 3
	OptTypeBool        OptionType = 4
	OptTypeFloat       OptionType = 5
)

func getTypeName(t OptionType) string {
	switch t {
	case optTypeAny:
		return "any"
	case OptTypeString:
		return "string"
	case OptTypeStringArray:
		return "[]string"
	case OptTypeInt:
		return "int"
	case OptTypeBool:
		return "bool"
	case OptTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// ExpertiseLevel allows to group settings by user expertise.
type ExpertiseLevel uint8

// Expertise Levels.
const (
	ExpertiseLevelUser      ExpertiseLevel = 0
	ExpertiseLevelExpert    ExpertiseLevel = 1
	ExpertiseLevelDeveloper ExpertiseLevel = 2
)

// Option describes a configuration option.
type Option struct {
	sync.Mutex

	// Name holds the name of the configuration options.
	// It should be human readable and is mainly used for
	// presentation purposes.
	Name string
	// Key holds the database path for the option. It should
	// follow the path format `category/sub/key`.
	Key string
	// Description holds a human readable description of the
	// option and what is does.
	Description string
	// OptType defines the type of the option.
	OptType OptionType
	// ExpertiseLevel can be used to set the required expertise
	// level for the option to be displayed to a user.
	ExpertiseLevel ExpertiseLevel
	// RequiresRestart should be set to true if a modification of
	// the options value requires a restart of the whole application
	// to take effect.
	RequiresRestart bool
	// DefaultValue holds the default value of the option. Note that
	// this value can be overwritten during runtime (see activeDefaultValue
	// and activeFallbackValue).
	DefaultValue interface{}
	// ValidationRegex may contain a regular expression used to validate
	// the value of option. If the option type is set to OptTypeStringArray
	// the validation regex is applied to all entries of the string slice.
	ValidationRegex string

	// activeValue holds the value from the user configuration.
	activeValue *valueCache
	// activeDefaultValue holds the value set as the default value during runtime.
	activeDefaultValue *valueCache
	// activeFallbackValue holds the validated DefaultValue.
	activeFallbackValue *valueCache
	// compiledRegex holds the compiled version of ValidationRegex.
	compiledRegex *regexp.Regexp
}

// Export expors an option to a JSON document, including its active and
// default values.
func (option *Option) Export() ([]byte, error) {
	option.Lock()
	defer option.Unlock()

	return option.export()
}

func (option *Option) export() ([]byte, error) {
	data, err := json.Marshal(option)
	if err != nil {
		return nil, err
	}

	if option.activeValue != nil {
		data, err = sjson.SetBytes(data, "Value", option.activeValue.getData(option))
		if err != nil {
			return nil, err
		}
	}

	if option.activeDefaultValue != nil {
		data, err = sjson.SetBytes(data, "DefaultValue", option.activeDefaultValue.getData(option))
		if err != nil {
			return nil, err
		}
	}

	return sjson.SetBytes(data, "Type", getTypeName(option.OptType))
}
