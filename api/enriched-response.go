// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// EnrichedResponseWriter is a wrapper for http.ResponseWriter for better information extraction.
type EnrichedResponseWriter struct {
	http.ResponseWriter
	Status int
}

// NewEnrichedResponseWriter wraps a response writer.
func NewEnrichedResponseWriter(w http.ResponseWriter) *EnrichedResponseWriter {
	return &EnrichedResponseWriter{
		ResponseWriter: w,
		Status:         http.StatusOK,
	}
}

// WriteHeader wraps the original WriteHeader method to extract information.
func (ew *EnrichedResponseWriter) WriteHeader(code int) {
	ew.Status = code
	ew.ResponseWriter.WriteHeader(code)
}

// Hijack wraps the original Hijack method, if available.
func (ew *EnrichedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := ew.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
