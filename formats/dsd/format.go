// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package dsd

import (
	"errors"
	"strings"
)

// Errors.
var (
	ErrIncompatibleFormat = errors.New("dsd: format is incompatible with operation")
	ErrNoMoreSpace        = errors.New("dsd: no more space left after reading dsd type")
	ErrUnknownFormat      = errors.New("dsd: format is unknown")
)

// SerializationFormat identifies a serialization format. Its value is used
// as the leading identifier byte of dumped data.
type SerializationFormat uint8

// Serialization Formats.
const (
	AUTO    SerializationFormat = 0
	CBOR    SerializationFormat = 67 // C
	JSON    SerializationFormat = 74 // J
	MsgPack SerializationFormat = 77 // M
)

// DefaultSerializationFormat is used when dumping with AUTO.
var DefaultSerializationFormat = JSON

// ValidateSerializationFormat validates if the format is for serialization,
// and returns the validated format as well as the result of the validation.
// If called on the AUTO format, it returns the default serialization format.
func (format SerializationFormat) ValidateSerializationFormat() (validated SerializationFormat, ok bool) {
	switch format {
	case AUTO:
		return DefaultSerializationFormat, true
	case CBOR, JSON, MsgPack:
		return format, true
	default:
		return 0, false
	}
}

func (format SerializationFormat) String() string {
	switch format {
	case AUTO:
		return "auto"
	case CBOR:
		return "cbor"
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// FormatFromName returns the format with the given name.
func FormatFromName(name string) (SerializationFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return AUTO, nil
	case "cbor":
		return CBOR, nil
	case "json":
		return JSON, nil
	case "msgpack", "x-msgpack":
		return MsgPack, nil
	default:
		return 0, ErrUnknownFormat
	}
}
