// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

var (
	optionsLock sync.RWMutex
	options     = radix.New()
)

// walkOptions calls fn for the options with the key prefix in key order
// until fn returns false. The caller must hold optionsLock.
func walkOptions(prefix string, fn func(key string, opt *Option) bool) {
	options.WalkPrefix(prefix, func(key string, v interface{}) bool {
		return !fn(key, v.(*Option)) //nolint:forcetypeassert
	})
}

// ForEachOption calls fn for each defined option. If fn returns
// and error the iteration is stopped and the error is returned.
// Note that ForEachOption does not guarantee a stable order of
// iteration between multiple calles. ForEachOption does NOT lock
// opt when calling fn.
func ForEachOption(fn func(opt *Option) error) error {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	var err error
	walkOptions("", func(_ string, opt *Option) bool {
		err = fn(opt)
		return err == nil
	})
	return err
}

// OptionsByPrefix returns the options whose key starts with prefix, sorted
// by key.
func OptionsByPrefix(prefix string) []*Option {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	var found []*Option
	walkOptions(prefix, func(_ string, opt *Option) bool {
		found = append(found, opt)
		return true
	})
	return found
}

// ExportOptions exports the registered options with the key prefix as a
// JSON array, sorted by key.
func ExportOptions(prefix string) ([]byte, error) {
	sorted := OptionsByPrefix(prefix)

	exported := make([]string, 0, len(sorted))
	for _, opt := range sorted {
		data, err := opt.Export()
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", opt.Key, err)
		}
		exported = append(exported, string(data))
	}
	return []byte("[" + strings.Join(exported, ",") + "]"), nil
}

// GetOption returns the option with name or an error
// if the option does not exist. The caller should lock
// the returned option itself for further processing.
func GetOption(name string) (*Option, error) {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	v, ok := options.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return v.(*Option), nil //nolint:forcetypeassert
}

// Register registers a new configuration option. Registering the same key
// again replaces the previous definition.
func Register(option *Option) error {
	if option.Name == "" {
		return fmt.Errorf("failed to register option: please set option.Name")
	}
	if option.Key == "" {
		return fmt.Errorf("failed to register option: please set option.Key")
	}
	if option.Description == "" {
		return fmt.Errorf("failed to register option: please set option.Description")
	}
	if option.OptType == 0 {
		return fmt.Errorf("failed to register option: please set option.OptType")
	}

	var err error
	if option.ValidationRegex != "" {
		option.compiledRegex, err = regexp.Compile(option.ValidationRegex)
		if err != nil {
			return newInvalidOptionError(fmt.Sprintf("%s: could not compile option.ValidationRegex", option.Key), err)
		}
	}

	option.activeFallbackValue, err = validateValue(option, option.DefaultValue)
	if err != nil {
		return newInvalidOptionError(fmt.Sprintf("%s: default value is invalid", option.Key), err)
	}

	optionsLock.Lock()
	defer optionsLock.Unlock()
	options.Insert(option.Key, option)

	signalChanges()

	return nil
}

func resetRegistry() {
	optionsLock.Lock()
	defer optionsLock.Unlock()
	options = radix.New()
}
