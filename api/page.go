// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"

	"github.com/safing/entropyrng/log"
)

// capturePage streams mouse movement to the input websocket and shows the
// collection progress.
const capturePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>entropyrng</title>
<style>
body { font-family: monospace; margin: 0; }
#area { height: 70vh; background: #f3f3f3; border-bottom: 1px solid #ccc; cursor: crosshair; }
#status { padding: 1em; white-space: pre; }
</style>
</head>
<body>
<div id="area"></div>
<div id="status">connecting...</div>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/api/v1/input/ws");
  var status = document.getElementById("status");
  var batch = [];

  document.getElementById("area").addEventListener("mousemove", function (e) {
    batch.push({x: e.clientX, y: e.clientY});
  });

  setInterval(function () {
    if (batch.length === 0 || ws.readyState !== WebSocket.OPEN) {
      return;
    }
    ws.send(JSON.stringify(batch));
    batch = [];
  }, 50);

  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "error") {
      status.textContent = "error: " + msg.error;
      return;
    }
    var text = "session " + msg.session + "\n" +
      "mouse samples: " + msg.mouse + "\n" +
      "active movement: " + (msg.active_ms / 1000).toFixed(1) + "s\n";
    if (msg.ready) {
      text += "READY: values available at /api/v1/generate";
    } else {
      text += "keep moving the mouse, missing: " + (msg.missing || []).join(", ");
    }
    status.textContent = text;
  };
  ws.onclose = function () {
    status.textContent += "\nconnection closed";
  };
})();
</script>
</body>
</html>
`

func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(capturePage)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(capturePage)); err != nil {
		log.Warningf("api: failed to write page: %s", err)
	}
}
