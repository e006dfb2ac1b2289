// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/tevino/abool"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/utils"
)

const (
	wsMsgTypeStatus = "status"
	wsMsgTypeError  = "error"

	wsStatusInterval = 500 * time.Millisecond
)

// mouseStream is a websocket client feeding mouse positions.
//
// Protocol:
//
//	client: {"x":<int>,"y":<int>} or an array of these
//	server: {"type":"status","ready":<bool>,"mouse":<int>,"active_ms":<int>,"missing":[...]}
//	server: {"type":"error","error":<message>}
type mouseStream struct {
	id        string
	h         *handler
	conn      *websocket.Conn
	sendQueue chan []byte

	shutdownSignal chan struct{}
	shutdownOnce   sync.Once
	shuttingDown   *abool.AtomicBool
}

func allowAnyOrigin(r *http.Request) bool {
	return true
}

func (h *handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin:     allowAnyOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied to the client.
		log.Warningf("api: could not upgrade to websocket: %s", err)
		return
	}

	stream := &mouseStream{
		id:             uuid.Must(uuid.NewV4()).String(),
		h:              h,
		conn:           wsConn,
		sendQueue:      make(chan []byte, 100),
		shutdownSignal: make(chan struct{}),
		shuttingDown:   abool.New(),
	}
	log.Debugf("api: mouse stream %s connected from %s", stream.id, r.RemoteAddr)

	go stream.reader()
	go stream.writer()
}

func (s *mouseStream) reader() {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.shuttingDown.IsSet() {
				s.shutdown()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warningf("api: mouse stream %s read error: %s", s.id, err)
				}
			}
			return
		}

		if err := s.handleMessage(msg); err != nil {
			s.sendError(err)
		}
	}
}

func (s *mouseStream) handleMessage(msg []byte) error {
	if !gjson.ValidBytes(msg) {
		log.Debugf("api: mouse stream %s sent invalid json: %s", s.id, utils.SafeFirst16Bytes(msg))
		return fmt.Errorf("invalid json")
	}
	collector, err := s.h.backend.Collector()
	if err != nil {
		return err
	}

	body := gjson.ParseBytes(msg)
	events := []gjson.Result{body}
	if body.IsArray() {
		events = body.Array()
	}

	ts := s.h.now().UnixNano()
	for i, event := range events {
		reading, err := parseMouse(event, ts+int64(i))
		if err != nil {
			return err
		}
		if err := collector.FeedMouse(reading); err != nil {
			return err
		}
	}
	return nil
}

func (s *mouseStream) writer() {
	ticker := time.NewTicker(wsStatusInterval)
	defer ticker.Stop()

	for {
		var data []byte

		select {
		// prioritize direct writes
		case data = <-s.sendQueue:
		case <-ticker.C:
			var err error
			data, err = s.statusMessage()
			if err != nil {
				data = errorMessage(err)
			}
		case <-s.h.ctx.Done():
			s.shutdown()
			return
		case <-s.shutdownSignal:
			return
		}

		err := s.conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			if !s.shuttingDown.IsSet() {
				s.shutdown()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warningf("api: mouse stream %s write error: %s", s.id, err)
				}
			}
			return
		}
	}
}

func (s *mouseStream) statusMessage() ([]byte, error) {
	status, err := s.h.backend.Status()
	if err != nil {
		return nil, err
	}

	msg := []byte(`{"type":"` + wsMsgTypeStatus + `"}`)
	msg, _ = sjson.SetBytes(msg, "session", status.Session)
	msg, _ = sjson.SetBytes(msg, "ready", status.Pool.Ready)
	msg, _ = sjson.SetBytes(msg, "mouse", status.Pool.MouseSamples)
	msg, _ = sjson.SetBytes(msg, "active_ms", status.Pool.ActiveDuration.Milliseconds())
	msg, err = sjson.SetBytes(msg, "missing", status.Pool.Missing())
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func errorMessage(err error) []byte {
	msg := []byte(`{"type":"` + wsMsgTypeError + `"}`)
	msg, _ = sjson.SetBytes(msg, "error", err.Error())
	return msg
}

func (s *mouseStream) sendError(err error) {
	select {
	case s.sendQueue <- errorMessage(err):
	default:
		log.Debugf("api: mouse stream %s send queue full, dropping error: %s", s.id, err)
	}
}

func (s *mouseStream) shutdown() {
	s.shutdownOnce.Do(func() {
		s.shuttingDown.Set()
		close(s.shutdownSignal)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second),
		)
		_ = s.conn.Close()
		log.Debugf("api: mouse stream %s closed", s.id)
	})
}
