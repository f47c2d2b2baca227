package broadcast

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/valter-silva-au/brainboard/internal/cache"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.SubscriberCount() != want {
		select {
		case <-deadline:
			t.Fatalf("subscriber count never reached %d (at %d)", want, hub.SubscriberCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func readInvalidate(t *testing.T, conn *websocket.Conn) InvalidateMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading message: %v", err)
	}
	var msg InvalidateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding message %q: %v", data, err)
	}
	return msg
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	defer a.Close()
	b := dialHub(t, srv)
	defer b.Close()
	waitForSubscribers(t, hub, 2)

	hub.Broadcast(ChannelTasks)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readInvalidate(t, conn)
		if msg.Type != "invalidate" || msg.Channel != ChannelTasks {
			t.Errorf("unexpected message %+v", msg)
		}
	}
}

func TestHub_OnInvalidateFansOutStoreChannels(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	hub.OnInvalidate(cache.CategoryStore)

	want := map[Channel]bool{
		ChannelTasks: false, ChannelQueue: false, ChannelAgents: false,
		ChannelActivity: false, ChannelNotifications: false,
	}
	for range want {
		msg := readInvalidate(t, conn)
		seen, known := want[msg.Channel]
		if !known {
			t.Fatalf("unexpected channel %s", msg.Channel)
		}
		if seen {
			t.Fatalf("duplicate channel %s", msg.Channel)
		}
		want[msg.Channel] = true
	}
}

func TestHub_DisconnectedSubscriberRemoved(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	waitForSubscribers(t, hub, 1)

	conn.Close()
	waitForSubscribers(t, hub, 0)

	// Broadcasting with no subscribers must not block or panic.
	hub.Broadcast(ChannelTasks)
}

func TestHub_SlowSubscriberSkipped(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	// Flood past the send queue without reading: excess messages are dropped
	// rather than blocking the broadcaster.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(ChannelActivity)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
