// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package dsd provides dynamic structured data: values serialized as JSON,
// CBOR or MsgPack, prefixed with a byte identifying the format.
package dsd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Load loads a dsd structured data blob into the given interface.
func Load(data []byte, t interface{}) (format SerializationFormat, err error) {
	if len(data) < 2 {
		return 0, ErrNoMoreSpace
	}

	format = SerializationFormat(data[0])
	if _, ok := format.ValidateSerializationFormat(); !ok || format == AUTO {
		return 0, ErrUnknownFormat
	}
	return format, LoadAsFormat(data[1:], format, t)
}

// LoadAsFormat loads data without a format identifier into the given interface.
func LoadAsFormat(data []byte, format SerializationFormat, t interface{}) (err error) {
	switch format {
	case JSON:
		err = json.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack json: %w, data: %s", err, string(data))
		}
		return nil
	case CBOR:
		err = cbor.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack cbor: %w, data: %v", err, data)
		}
		return nil
	case MsgPack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		err = dec.Decode(t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack msgpack: %w, data: %v", err, data)
		}
		return nil
	default:
		return ErrIncompatibleFormat
	}
}

// Dump stores the interface as a dsd formatted data structure.
func Dump(t interface{}, format SerializationFormat) ([]byte, error) {
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return nil, ErrIncompatibleFormat
	}

	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(format)}, data...), nil
}

// DumpWithoutIdentifier stores the interface as a data structure without
// the format identifier.
func DumpWithoutIdentifier(t interface{}, format SerializationFormat) ([]byte, error) {
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return nil, ErrIncompatibleFormat
	}

	var data []byte
	var err error
	switch format {
	case JSON:
		data, err = json.Marshal(t)
		if err != nil {
			return nil, err
		}
	case CBOR:
		data, err = cbor.Marshal(t)
		if err != nil {
			return nil, err
		}
	case MsgPack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err = enc.Encode(t); err != nil {
			return nil, err
		}
		data = buf.Bytes()
	default:
		return nil, ErrIncompatibleFormat
	}

	return data, nil
}
