// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/history"
	"github.com/safing/entropyrng/randtest"
	"github.com/safing/entropyrng/rng"
)

// HTTPStatusError is an error with an associated http status code.
type HTTPStatusError struct {
	Code int
	Err  error
}

func (e *HTTPStatusError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// BadRequest returns an error with the status code 400.
func BadRequest(format string, a ...interface{}) error {
	return &HTTPStatusError{
		Code: http.StatusBadRequest,
		Err:  fmt.Errorf(format, a...),
	}
}

type errorResponse struct {
	Error   string          `json:"error"`
	Missing []string        `json:"missing,omitempty"`
	Status  *entropy.Status `json:"status,omitempty"`
}

// errorStatus maps an error to a http status code and response.
func errorStatus(err error) (int, *errorResponse) {
	resp := &errorResponse{Error: err.Error()}

	var statusErr *HTTPStatusError
	var insufficient *rng.InsufficientEntropyError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Code, resp
	case errors.As(err, &insufficient):
		resp.Missing = insufficient.Status.Missing()
		resp.Status = &insufficient.Status
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, rng.ErrInsufficientEntropy),
		errors.Is(err, rng.ErrNotStarted),
		errors.Is(err, history.ErrClosed):
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, entropy.ErrInvalidReading),
		errors.Is(err, randtest.ErrInvalidPolicy):
		return http.StatusBadRequest, resp
	case errors.Is(err, rng.ErrSourceHalted):
		return http.StatusConflict, resp
	default:
		return http.StatusInternalServerError, resp
	}
}
