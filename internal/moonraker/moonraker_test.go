package moonraker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		frame      string
		wantKind   Kind
		wantID     string
		wantMethod string
	}{
		{
			name:     "response",
			frame:    `{"jsonrpc":"2.0","result":{"klippy_connected":true},"id":"abc"}`,
			wantKind: KindResponse,
			wantID:   "abc",
		},
		{
			name:     "response with null result",
			frame:    `{"jsonrpc":"2.0","result":null,"id":"abc"}`,
			wantKind: KindResponse,
			wantID:   "abc",
		},
		{
			name:     "error reply",
			frame:    `{"jsonrpc":"2.0","error":{"code":400,"message":"Klippy not ready"},"id":"def"}`,
			wantKind: KindError,
			wantID:   "def",
		},
		{
			name:       "notification with params",
			frame:      `{"jsonrpc":"2.0","method":"notify_status_update","params":[{"fan":{"speed":0.5}},12.5]}`,
			wantKind:   KindNotification,
			wantMethod: NotifyStatusUpdate,
		},
		{
			name:       "notification without params",
			frame:      `{"jsonrpc":"2.0","method":"notify_klippy_ready"}`,
			wantKind:   KindNotification,
			wantMethod: NotifyKlippyReady,
		},
		{
			name:       "null id is a notification",
			frame:      `{"jsonrpc":"2.0","method":"notify_klippy_shutdown","id":null}`,
			wantKind:   KindNotification,
			wantMethod: NotifyKlippyShutdown,
		},
		{
			name:     "numeric id",
			frame:    `{"jsonrpc":"2.0","result":"ok","id":42}`,
			wantKind: KindResponse,
			wantID:   "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.ID != tt.wantID {
				t.Fatalf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Method != tt.wantMethod {
				t.Fatalf("Method = %q, want %q", got.Method, tt.wantMethod)
			}
		})
	}
}

func TestClassify_ErrorReplyCarriesMessage(t *testing.T) {
	got, err := Classify([]byte(`{"jsonrpc":"2.0","error":{"code":400,"message":"Klippy not ready"},"id":"x"}`))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Err == nil || got.Err.Code != 400 || got.Err.Message != "Klippy not ready" {
		t.Fatalf("Err = %#v, want code 400 message Klippy not ready", got.Err)
	}
	if !strings.Contains(got.Err.Error(), "Klippy not ready") {
		t.Fatalf("Err.Error() = %q", got.Err.Error())
	}
}

func TestClassify_Unparseable(t *testing.T) {
	frames := []string{
		``,
		`not json`,
		`[1,2,3]`,
		`{"jsonrpc":"2.0"}`,
		`{"jsonrpc":"2.0","id":"orphan"}`,
		`{"jsonrpc":"2.0","method":""}`,
	}
	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			_, err := Classify([]byte(frame))
			if !errors.Is(err, ErrUnparseable) {
				t.Fatalf("Classify(%q) error = %v, want ErrUnparseable", frame, err)
			}
		})
	}
}

func TestRequestEncode(t *testing.T) {
	data, err := Request{Method: MethodServerInfo, ID: "1"}.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	want := `{"jsonrpc":"2.0","method":"server.info","params":{},"id":"1"}`
	if string(data) != want {
		t.Fatalf("Encode = %s, want %s", data, want)
	}
}

func TestAllFieldsEncodesNullFieldLists(t *testing.T) {
	data, err := json.Marshal(AllFields([]string{"toolhead", "extruder"}))
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `{"objects":{"extruder":null,"toolhead":null}}`
	if string(data) != want {
		t.Fatalf("AllFields = %s, want %s", data, want)
	}
}

func TestCorrelator_RoundTrip(t *testing.T) {
	c := NewCorrelator()

	req := c.Issue(MethodServerInfo, struct{}{})
	if req.ID == "" {
		t.Fatalf("Issue returned empty id")
	}
	if req.JSONRPC != "2.0" || req.Method != MethodServerInfo {
		t.Fatalf("Issue = %#v", req)
	}

	method, ok := c.Resolve(req.ID)
	if !ok || method != MethodServerInfo {
		t.Fatalf("Resolve = %q, %v; want %q, true", method, ok, MethodServerInfo)
	}
	if method, ok := c.Resolve(req.ID); ok || method != "" {
		t.Fatalf("second Resolve = %q, %v; want empty, false", method, ok)
	}
}

func TestCorrelator_UnknownIDResolvesToNothing(t *testing.T) {
	c := NewCorrelator()
	if _, ok := c.Resolve("never-issued"); ok {
		t.Fatalf("Resolve of unknown id reported ok")
	}
}

func TestCorrelator_SkipsOutstandingIDs(t *testing.T) {
	ids := []string{"a", "a", "a", "b"}
	next := 0
	c := NewCorrelatorWithIDs(func() string {
		id := ids[next]
		next++
		return id
	})

	first := c.Issue("one", nil)
	second := c.Issue("two", nil)
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("ids = %q, %q; want a, b", first.ID, second.ID)
	}
	if c.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", c.Pending())
	}
}

func TestCorrelator_Reset(t *testing.T) {
	c := NewCorrelator()
	for i := 0; i < 5; i++ {
		c.Issue(fmt.Sprintf("m%d", i), nil)
	}
	c.Reset()
	if c.Pending() != 0 {
		t.Fatalf("Pending after Reset = %d, want 0", c.Pending())
	}
}

func TestCorrelator_UniqueIDs(t *testing.T) {
	c := NewCorrelator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		req := c.Issue(MethodServerInfo, nil)
		if seen[req.ID] {
			t.Fatalf("duplicate id %q after %d calls", req.ID, i)
		}
		seen[req.ID] = true
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "ws://127.0.0.1:7125/websocket"},
		{"voron.local", "ws://voron.local/websocket"},
		{"  10.0.0.5:7125  ", "ws://10.0.0.5:7125/websocket"},
		{"http://printer:7125", "ws://printer:7125/websocket"},
		{"https://printer/", "wss://printer/websocket"},
		{"ws://printer/custom", "ws://printer/custom"},
		{"ws://printer/websocket?token=x#frag", "ws://printer/websocket?token=x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseEndpoint(tt.in)
			if err != nil {
				t.Fatalf("ParseEndpoint returned error: %v", err)
			}
			if u.String() != tt.want {
				t.Fatalf("ParseEndpoint = %q, want %q", u.String(), tt.want)
			}
		})
	}
}

func TestParseEndpoint_RejectsUnsupportedScheme(t *testing.T) {
	if _, err := ParseEndpoint("ftp://printer"); err == nil {
		t.Fatalf("ParseEndpoint returned nil error for ftp scheme")
	}
}

func TestServerInfoReady(t *testing.T) {
	tests := []struct {
		info ServerInfo
		want bool
	}{
		{ServerInfo{KlippyConnected: true, KlippyState: "ready"}, true},
		{ServerInfo{KlippyConnected: true, KlippyState: "startup"}, false},
		{ServerInfo{KlippyConnected: false, KlippyState: "ready"}, false},
	}
	for _, tt := range tests {
		if got := tt.info.Ready(); got != tt.want {
			t.Errorf("Ready(%+v) = %v, want %v", tt.info, got, tt.want)
		}
	}
}
