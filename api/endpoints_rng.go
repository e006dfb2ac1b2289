// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/safing/entropyrng/config"
	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/history"
	"github.com/safing/entropyrng/info"
	"github.com/safing/entropyrng/randtest"
	"github.com/safing/entropyrng/rng"
)

// Request limits.
const (
	defaultGenerateCount = 24
	maxGenerateCount     = 100000
	defaultBytesCount    = 32
	maxBytesCount        = 1 << 20
)

func (h *handler) endpoints() []Endpoint {
	return []Endpoint{
		{
			Path:        "status",
			Methods:     []string{http.MethodGet},
			Name:        "Status",
			Description: "Returns the status of the entropy pool and the collection session.",
			StructFunc:  h.handleStatus,
		},
		{
			Path:        "info",
			Methods:     []string{http.MethodGet},
			Name:        "Program Info",
			Description: "Returns version and build information and the available digest algorithms.",
			StructFunc: func(_ *Request) (interface{}, error) {
				return info.GetInfo(), nil
			},
		},
		{
			Path:        "generate",
			Methods:     []string{http.MethodGet, http.MethodPost},
			Name:        "Generate Values",
			Description: "Generates `count` (default 24) values in the output range. Fails with 503 until the pool is ready.",
			StructFunc:  h.handleGenerate,
		},
		{
			Path:        "bytes",
			Methods:     []string{http.MethodGet},
			Name:        "Generate Bytes",
			Description: "Returns `n` (default 32) random bytes from the pool seeded stream.",
			StructFunc:  h.handleBytes,
		},
		{
			Path:        "input/mouse",
			Methods:     []string{http.MethodPost},
			Name:        "Mouse Input",
			Description: "Feeds a mouse position `{\"x\":1,\"y\":2}` or an array of them. Timestamps are assigned on arrival.",
			StructFunc:  h.handleMouse,
		},
		{
			Path:        "input/audio",
			Methods:     []string{http.MethodPost},
			Name:        "Audio Input",
			Description: "Feeds a block of audio samples `{\"samples\":[...]}` from an external capture process.",
			StructFunc:  h.handleAudio,
		},
		{
			Path:        "input/ws",
			Name:        "Mouse Input Stream",
			Description: "Websocket for mouse positions. The server answers with status updates.",
			HandlerFunc: h.handleWebsocket,
		},
		{
			Path:        "validate",
			Methods:     []string{http.MethodPost},
			Name:        "Validate Values",
			Description: "Runs the randomness tests on the posted values, or on the stored history with `history=1`.",
			StructFunc:  h.handleValidate,
		},
		{
			Path:        "history",
			Methods:     []string{http.MethodGet},
			Name:        "History",
			Description: "Returns all values generated during this run, or since the history database was created.",
			StructFunc:  h.handleHistory,
		},
		{
			Path:        "config",
			Methods:     []string{http.MethodGet},
			Name:        "Configuration",
			Description: "Returns the registered options with their current values, filtered by the key `prefix`.",
			StructFunc:  handleConfig,
		},
	}
}

func handleConfig(ar *Request) (interface{}, error) {
	data, err := config.ExportOptions(ar.Request.URL.Query().Get("prefix"))
	if err != nil {
		return nil, err
	}
	return gjson.ParseBytes(data).Value(), nil
}

type statusResponse struct {
	rng.ServiceStatus
	Missing    []string `json:"missing,omitempty"`
	HistoryLen int      `json:"history_len"`
}

func (h *handler) handleStatus(_ *Request) (interface{}, error) {
	status, err := h.backend.Status()
	if err != nil {
		return nil, err
	}
	n, err := h.history.Len()
	if err != nil {
		return nil, err
	}

	return &statusResponse{
		ServiceStatus: status,
		Missing:       status.Pool.Missing(),
		HistoryLen:    n,
	}, nil
}

type generateResponse struct {
	Session string `json:"session"`
	Values  []int  `json:"values"`
}

func (h *handler) handleGenerate(ar *Request) (interface{}, error) {
	count, err := ar.IntParam("count", defaultGenerateCount, 1, maxGenerateCount)
	if err != nil {
		return nil, err
	}

	values, err := h.backend.Generate(count)
	if err != nil {
		return nil, err
	}

	status, err := h.backend.Status()
	if err != nil {
		return nil, err
	}
	err = h.history.Append(history.Batch{
		Session:     status.Session,
		TimestampNs: h.now().UnixNano(),
		Values:      values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store values: %w", err)
	}

	return &generateResponse{
		Session: status.Session,
		Values:  values,
	}, nil
}

type bytesResponse struct {
	Bytes []byte `json:"bytes"`
}

func (h *handler) handleBytes(ar *Request) (interface{}, error) {
	n, err := ar.IntParam("n", defaultBytesCount, 1, maxBytesCount)
	if err != nil {
		return nil, err
	}

	data, err := h.backend.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &bytesResponse{Bytes: data}, nil
}

type inputResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// parseMouse parses a mouse position. Coordinates must be numbers.
func parseMouse(event gjson.Result, ts int64) (entropy.MouseReading, error) {
	x, y := event.Get("x"), event.Get("y")
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return entropy.MouseReading{}, BadRequest("mouse event needs numeric x and y: %s", event.Raw)
	}
	return entropy.MouseReading{
		X:           int(x.Int()),
		Y:           int(y.Int()),
		TimestampNs: ts,
	}, nil
}

func (h *handler) handleMouse(ar *Request) (interface{}, error) {
	if !gjson.ValidBytes(ar.InputData) {
		return nil, BadRequest("invalid json")
	}
	collector, err := h.backend.Collector()
	if err != nil {
		return nil, err
	}

	body := gjson.ParseBytes(ar.InputData)
	events := []gjson.Result{body}
	if body.IsArray() {
		events = body.Array()
	}

	// events of one request arrive at the same time, keep their order
	ts := h.now().UnixNano()
	resp := &inputResponse{}
	for i, event := range events {
		reading, err := parseMouse(event, ts+int64(i))
		if err == nil {
			err = collector.FeedMouse(reading)
		}
		if err != nil {
			if len(events) == 1 {
				return nil, err
			}
			resp.Rejected++
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Accepted++
	}
	return resp, nil
}

func (h *handler) handleAudio(ar *Request) (interface{}, error) {
	if !gjson.ValidBytes(ar.InputData) {
		return nil, BadRequest("invalid json")
	}
	samples := gjson.GetBytes(ar.InputData, "samples")
	if !samples.IsArray() {
		return nil, BadRequest("missing samples array")
	}

	reading := entropy.AudioReading{
		TimestampNs: h.now().UnixNano(),
	}
	for _, sample := range samples.Array() {
		if sample.Type != gjson.Number {
			return nil, BadRequest("audio samples must be numbers, got %s", sample.Raw)
		}
		reading.Samples = append(reading.Samples, sample.Float())
	}

	collector, err := h.backend.Collector()
	if err != nil {
		return nil, err
	}
	if err := collector.FeedAudio(reading); err != nil {
		return nil, err
	}
	return &inputResponse{Accepted: 1}, nil
}

func (h *handler) handleValidate(ar *Request) (interface{}, error) {
	var values []int
	var err error
	if ar.Request.URL.Query().Get("history") == "1" {
		values, err = h.history.All()
	} else {
		values, err = randtest.ParseValues(bytes.NewReader(ar.InputData))
		if err != nil {
			return nil, BadRequest("failed to parse values: %s", err)
		}
	}
	if err != nil {
		return nil, err
	}

	return randtest.Validate(values, randtest.PolicyFromConfig())
}

type historyResponse struct {
	Count  int   `json:"count"`
	Values []int `json:"values"`
}

func (h *handler) handleHistory(_ *Request) (interface{}, error) {
	values, err := h.history.All()
	if err != nil {
		return nil, err
	}
	return &historyResponse{
		Count:  len(values),
		Values: values,
	}, nil
}
