// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseValues reads integers separated by whitespace or commas. Enclosing
// brackets are ignored, so JSON arrays are accepted as well.
func ParseValues(r io.Reader) ([]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fields := strings.FieldsFunc(string(data), func(c rune) bool {
		switch c {
		case ' ', '\t', '\n', '\r', ',', '[', ']':
			return true
		}
		return false
	})

	values := make([]int, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		values = append(values, v)
	}
	return values, nil
}
