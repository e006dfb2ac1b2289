// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/safing/entropyrng/formats/dsd"
	"github.com/safing/entropyrng/log"
)

// Endpoint describes an API Endpoint.
// Path and exactly one function are required.
type Endpoint struct {
	Path    string
	Methods []string

	// StructFunc returns a value that is serialized in the format
	// requested by the client. Errors are mapped to status codes.
	StructFunc StructFunc `json:"-"`

	// HandlerFunc is the raw http handler, for streams.
	HandlerFunc http.HandlerFunc `json:"-"`

	// Documentation Metadata.

	Name        string
	Description string
}

// StructFunc is for returning any kind of struct.
type StructFunc func(ar *Request) (i interface{}, err error)

const (
	apiV1Path = "/api/v1/"

	maxInputSize = 20000000 // 20MB
)

// ErrInvalidEndpoint is returned when an invalid endpoint is registered.
var ErrInvalidEndpoint = errors.New("endpoint is invalid")

// registerEndpoint adds the endpoint to the router below the api path.
func registerEndpoint(router *mux.Router, e Endpoint) error {
	if err := e.check(); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidEndpoint, e.Path, err)
	}

	route := router.Handle(apiV1Path+e.Path, &e)
	if len(e.Methods) > 0 {
		route.Methods(append(e.Methods, http.MethodOptions, http.MethodHead)...)
	}
	return nil
}

func (e *Endpoint) check() error {
	switch {
	case strings.TrimSpace(e.Path) == "":
		return errors.New("path is missing")
	case (e.StructFunc == nil) == (e.HandlerFunc == nil):
		return errors.New("exactly one function must be set")
	}
	return nil
}

// ServeHTTP handles the http request.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e.HandlerFunc != nil {
		e.HandlerFunc(w, r)
		return
	}

	apiRequest := newRequest(r)
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost, http.MethodPut:
		inputData, ok := readBody(w, r)
		if !ok {
			return
		}
		apiRequest.InputData = inputData
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	v, err := e.StructFunc(apiRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeStruct(w, r, http.StatusOK, v)
}

// writeStruct serializes v in the format given by the format query parameter
// or the Accept header, JSON by default.
func writeStruct(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	format := dsd.FormatFromAccept(r.Header.Get("Accept"), dsd.JSON)
	if name := r.URL.Query().Get("format"); name != "" {
		var err error
		if format, err = dsd.FormatFromName(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	format, _ = format.ValidateSerializationFormat()

	data, err := dsd.DumpWithoutIdentifier(v, format)
	if err != nil {
		http.Error(w, "failed to serialize response: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", dsd.FormatToMimeType[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		log.Warningf("api: failed to write response: %s", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, resp := errorStatus(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		log.Warningf("api: request %s %s failed: %s", r.Method, r.URL.Path, err)
	}
	writeStruct(w, r, code, resp)
}

func readBody(w http.ResponseWriter, r *http.Request) (inputData []byte, ok bool) {
	if r.ContentLength > maxInputSize {
		http.Error(w, "too much input data", http.StatusRequestEntityTooLarge)
		return nil, false
	}

	inputData, err := io.ReadAll(io.LimitReader(r.Body, maxInputSize))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return inputData, true
}
