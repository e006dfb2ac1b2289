// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package utils holds small helpers for file system access and logging.
package utils

import (
	"encoding/hex"
	"strings"
)

// SafeFirst16Bytes returns the hex dump line of the first 16 bytes of data,
// for logging untrusted input.
func SafeFirst16Bytes(data []byte) string {
	if len(data) == 0 {
		return "<empty>"
	}

	return strings.TrimPrefix(
		strings.SplitN(hex.Dump(data), "\n", 2)[0],
		"00000000  ",
	)
}
