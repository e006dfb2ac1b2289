// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"
)

// Request is a support struct to pool more request related information.
type Request struct {
	// Request is the http request.
	Request *http.Request

	// InputData contains the request body for write operations.
	InputData []byte
}

func newRequest(r *http.Request) *Request {
	return &Request{
		Request: r,
	}
}

// IntParam returns the integer query parameter with the given name, or the
// default if it is not set. Values outside of [min, max] are refused.
func (ar *Request) IntParam(name string, def, min, max int) (int, error) {
	raw := ar.Request.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, BadRequest("invalid %s parameter: %s", name, err)
	}
	if v < min || v > max {
		return 0, BadRequest("%s must be between %d and %d, got %d", name, min, max, v)
	}
	return v, nil
}
