// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"
)

var (
	validityFlag     = abool.NewBool(true)
	validityFlagLock sync.RWMutex
)

// getValidityFlag returns a flag that signifies if the configuration has been changed. This flag must not be changed, only read.
func getValidityFlag() *abool.AtomicBool {
	validityFlagLock.RLock()
	defer validityFlagLock.RUnlock()
	return validityFlag
}

// signalChanges invalidates all cached getters.
func signalChanges() {
	validityFlagLock.Lock()
	defer validityFlagLock.Unlock()

	validityFlag.SetTo(false)
	validityFlag = abool.NewBool(true)
}

// layer selects the value slot of an option: the user defined value or the
// default that replaces the registered default value.
type layer func(option *Option) **valueCache

func userLayer(option *Option) **valueCache    { return &option.activeValue }
func defaultLayer(option *Option) **valueCache { return &option.activeDefaultValue }

// replaceLayer replaces the layer of all options. Options missing in
// newValues are reset. Invalid values are skipped and reported together.
func replaceLayer(newValues map[string]interface{}, slot layer) error {
	var errs *multierror.Error

	// Only option values change, which are guarded by each option's lock.
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	walkOptions("", func(key string, option *Option) bool {
		newValue, ok := newValues[key]

		option.Lock()
		*slot(option) = nil
		if ok {
			vc, err := validateValue(option, newValue)
			if err != nil {
				errs = multierror.Append(errs, err)
			} else {
				*slot(option) = vc
			}
		}
		option.Unlock()
		return true
	})

	signalChanges()
	return errs.ErrorOrNil()
}

// setLayerOption sets a single option in the layer. A nil value resets it.
func setLayerOption(key string, value interface{}, slot layer) error {
	option, err := GetOption(key)
	if err != nil {
		return err
	}

	var vc *valueCache
	if value != nil {
		if vc, err = validateValue(option, value); err != nil {
			return err
		}
	}

	option.Lock()
	*slot(option) = vc
	option.Unlock()

	signalChanges()
	return nil
}

// setConfig sets the (prioritized) user defined config. Options missing in
// newValues are reset to their default.
func setConfig(newValues map[string]interface{}) error {
	return replaceLayer(newValues, userLayer)
}

// SetDefaultConfig sets the (fallback) default config.
func SetDefaultConfig(newValues map[string]interface{}) error {
	return replaceLayer(newValues, defaultLayer)
}

// SetConfigOption sets a single value in the (prioritized) user defined config.
func SetConfigOption(key string, value interface{}) error {
	return setLayerOption(key, value, userLayer)
}

// SetDefaultConfigOption sets a single value in the (fallback) default config.
func SetDefaultConfigOption(key string, value interface{}) error {
	return setLayerOption(key, value, defaultLayer)
}
