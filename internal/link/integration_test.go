package link

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/krui/internal/moonraker"
	"github.com/five82/krui/internal/transport"
)

// scriptedMoonraker answers the handshake the way a ready printer would.
func scriptedMoonraker(t *testing.T, accepted chan<- *websocket.Conn) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- c
		go serveScripted(c)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serveScripted(c *websocket.Conn) {
	defer c.Close()
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req moonraker.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		var result string
		var after []string
		switch req.Method {
		case moonraker.MethodIdentify:
			result = `{"connection_id":1}`
		case moonraker.MethodServerInfo:
			result = `{"klippy_connected":true,"klippy_state":"ready","moonraker_version":"v0.9"}`
		case moonraker.MethodObjectsList:
			result = `{"objects":["webhooks","heaters","extruder","toolhead"]}`
		case moonraker.MethodObjectsQuery:
			result = `{"eventtime":1,"status":{"webhooks":{"state":"ready"},"heaters":{"available_heaters":["extruder"]},"extruder":{"temperature":24,"target":0},"toolhead":{"homed_axes":""}}}`
		case moonraker.MethodObjectsSubscribe:
			result = `{"eventtime":1,"status":{}}`
			after = append(after,
				`{"jsonrpc":"2.0","method":"notify_status_update","params":[{"extruder":{"temperature":205.5,"target":210}},2]}`,
				`{"jsonrpc":"2.0","method":"notify_gcode_response","params":["// extruder heating"]}`,
			)
		case moonraker.MethodHistoryList:
			result = `{"count":1,"jobs":[{"filename":"benchy.gcode","status":"completed","end_time":1700000000}]}`
		case moonraker.MethodGCodeScript:
			result = `"ok"`
		default:
			result = `"ok"`
		}
		reply := `{"jsonrpc":"2.0","result":` + result + `,"id":"` + req.ID + `"}`
		if err := c.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
		for _, msg := range after {
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}
}

func tickUntil(t *testing.T, l *Link, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		l.Tick()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLinkAgainstScriptedServer(t *testing.T) {
	accepted := make(chan *websocket.Conn, 4)
	srv := scriptedMoonraker(t, accepted)
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/websocket"

	sup := transport.NewSupervisor(transport.Options{
		Endpoint:   endpoint,
		MinBackoff: 10 * time.Millisecond,
		MaxBackoff: 50 * time.Millisecond,
		Logger:     zerolog.Nop(),
	})
	l := New(sup, Options{Version: "test", Logger: zerolog.Nop()})
	l.Start(context.Background())
	t.Cleanup(l.Stop)

	tickUntil(t, l, "extruder at 205.5", func() bool {
		ext, ok := l.Snapshot().Heater("extruder")
		return ok && ext.Temperature == 205.5
	})
	if l.State() != transport.StateLive {
		t.Fatalf("State() = %v, want live", l.State())
	}
	snap := l.Snapshot()
	if !snap.Connected || snap.State != "ready" {
		t.Fatalf("snapshot = connected %v state %q", snap.Connected, snap.State)
	}
	if l.ServerInfo().MoonrakerVersion != "v0.9" {
		t.Fatalf("ServerInfo() = %+v", l.ServerInfo())
	}
	tickUntil(t, l, "history", func() bool { return len(l.History()) == 1 })
	tickUntil(t, l, "console line", func() bool { return len(l.Console(0)) == 1 })

	if err := l.GCode("G28"); err != nil {
		t.Fatalf("GCode() error = %v", err)
	}
	tickUntil(t, l, "gcode reply", func() bool { return l.Pending() == 0 })

	// Dropping the server side forces a reconnect and a fresh handshake.
	first := <-accepted
	first.Close()
	tickUntil(t, l, "reconnect", func() bool { return len(accepted) > 0 && l.State() == transport.StateLive })
	tickUntil(t, l, "status after reconnect", func() bool {
		ext, _ := l.Snapshot().Heater("extruder")
		return ext.Temperature == 205.5 && l.Pending() == 0
	})
	if n := len(l.Snapshot().Heaters); n != 1 {
		t.Fatalf("len(Heaters) = %d after reconnect, want 1", n)
	}
	if len(l.History()) != 1 {
		t.Fatalf("History() = %+v after reconnect, want one job", l.History())
	}
}
