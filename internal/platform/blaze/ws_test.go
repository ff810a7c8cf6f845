package blaze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeReplication plays the server side of the socket.io handshake and
// records the commands the client emits.
func fakeReplication(t *testing.T, cmds chan<- Command) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("EIO") != "3" || r.URL.Path != socketPath {
			t.Errorf("dial %s, want %s?EIO=3", r.URL.String(), socketPath)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"s1","pingInterval":25000,"pingTimeout":20000}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`40`))

		for i := 0; i < 2; i++ {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p, err := decodePacket(frame)
			if err != nil || p.event != "cmd" {
				continue
			}
			var cmd Command
			json.Unmarshal(p.args[0], &cmd)
			cmds <- cmd
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`42["data",{"id":"double.tick","payload":{"status":"rolling","color":1}}]`))
		conn.WriteMessage(websocket.TextMessage, []byte(`42["other",{}]`))
		conn.WriteMessage(websocket.TextMessage, []byte(`1`))
	}))
}

func TestWSClientSubscribesAndDispatches(t *testing.T) {
	cmds := make(chan Command, 2)
	srv := fakeReplication(t, cmds)
	defer srv.Close()

	type got struct {
		id      string
		payload string
	}
	events := make(chan got, 4)
	client := NewWSClient(WSConfig{
		URL:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token: "secret",
	}, func(id string, payload json.RawMessage) {
		events <- got{id: id, payload: string(payload)}
	}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Run(ctx); err == nil {
		t.Fatal("Run() error = nil, want disconnect error")
	}

	first, second := <-cmds, <-cmds
	if first.ID != "subscribe" || second.ID != "authenticate" {
		t.Errorf("commands = %s, %s, want subscribe, authenticate", first.ID, second.ID)
	}

	select {
	case ev := <-events:
		if ev.id != "double.tick" || !strings.Contains(ev.payload, `"rolling"`) {
			t.Errorf("event = %+v, want double.tick rolling", ev)
		}
	default:
		t.Fatal("no data event dispatched")
	}
	if len(events) != 0 {
		t.Errorf("%d extra events dispatched", len(events))
	}
}
