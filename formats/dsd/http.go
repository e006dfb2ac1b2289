// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package dsd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP Errors.
var (
	ErrMissingBody        = errors.New("dsd: missing http body")
	ErrMissingContentType = errors.New("dsd: missing http content type")
)

const (
	httpHeaderContentType = "Content-Type"
)

// Mime types of the serialization formats.
var (
	FormatToMimeType = map[SerializationFormat]string{
		JSON:    "application/json",
		CBOR:    "application/cbor",
		MsgPack: "application/msgpack",
	}
	MimeTypeToFormat = map[string]SerializationFormat{
		"application/json":    JSON,
		"application/cbor":    CBOR,
		"application/msgpack": MsgPack,
	}
)

// LoadFromHTTPRequest loads the body of the request according to its content type.
func LoadFromHTTPRequest(r *http.Request, t interface{}) (format SerializationFormat, err error) {
	if r.Body == nil {
		return 0, ErrMissingBody
	}
	defer func() {
		_ = r.Body.Close()
	}()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return 0, fmt.Errorf("dsd: failed to read http body: %w", err)
	}

	mimeType := r.Header.Get(httpHeaderContentType)
	if mimeType == "" {
		return 0, ErrMissingContentType
	}
	format, err = FormatFromName(extractMimeType(mimeType))
	if err != nil || format == AUTO {
		return 0, ErrIncompatibleFormat
	}

	return format, LoadAsFormat(data, format, t)
}

// FormatFromAccept returns the first supported format of an Accept header.
// It returns the fallback if none is supported.
func FormatFromAccept(accept string, fallback SerializationFormat) SerializationFormat {
	for _, mimeType := range strings.Split(accept, ",") {
		format, err := FormatFromName(extractMimeType(mimeType))
		if err == nil && format != AUTO {
			return format
		}
	}
	return fallback
}

// DumpToHTTPResponse writes the interface to the response in the format
// requested by the "format" query parameter or the Accept header.
func DumpToHTTPResponse(w http.ResponseWriter, r *http.Request, t interface{}, fallbackFormat SerializationFormat) error {
	format := FormatFromAccept(r.Header.Get("Accept"), fallbackFormat)
	if name := r.URL.Query().Get("format"); name != "" {
		var err error
		format, err = FormatFromName(name)
		if err != nil {
			return err
		}
	}
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return ErrIncompatibleFormat
	}

	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return fmt.Errorf("dsd: failed to serialize: %w", err)
	}

	w.Header().Set(httpHeaderContentType, FormatToMimeType[format])
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("dsd: failed to write response: %w", err)
	}
	return nil
}

// extractMimeType returns the lowercase sub type of the first mime type in
// the given header value.
func extractMimeType(mimeType string) string {
	if strings.Contains(mimeType, ",") {
		mimeType = strings.SplitN(mimeType, ",", 2)[0]
	}
	if strings.Contains(mimeType, ";") {
		mimeType = strings.SplitN(mimeType, ";", 2)[0]
	}
	if strings.Contains(mimeType, "/") {
		mimeType = strings.SplitN(mimeType, "/", 2)[1]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
