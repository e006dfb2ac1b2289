// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import "sync"

type safe struct{}

// Concurrent makes getters available that may be called from multiple
// goroutines. The plain getters must not be shared.
var Concurrent = &safe{}

func locked[T any](get func() T) func() T {
	var lock sync.Mutex
	return func() T {
		lock.Lock()
		defer lock.Unlock()
		return get()
	}
}

// GetAsString is the concurrency safe version of GetAsString.
func (cs *safe) GetAsString(name string, fallback string) StringOption {
	return locked(GetAsString(name, fallback))
}

// GetAsStringArray is the concurrency safe version of GetAsStringArray.
func (cs *safe) GetAsStringArray(name string, fallback []string) StringArrayOption {
	return locked(GetAsStringArray(name, fallback))
}

// GetAsInt is the concurrency safe version of GetAsInt.
func (cs *safe) GetAsInt(name string, fallback int64) IntOption {
	return locked(GetAsInt(name, fallback))
}

// GetAsBool is the concurrency safe version of GetAsBool.
func (cs *safe) GetAsBool(name string, fallback bool) BoolOption {
	return locked(GetAsBool(name, fallback))
}

// GetAsFloat is the concurrency safe version of GetAsFloat.
func (cs *safe) GetAsFloat(name string, fallback float64) FloatOption {
	return locked(GetAsFloat(name, fallback))
}
