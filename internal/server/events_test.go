package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/yptox/Twitter-2/internal/session"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// waitSubscribers blocks until the broker has n subscribers.
func waitSubscribers(t *testing.T, b *session.Broker, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for b.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", b.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsSSE(t *testing.T) {
	app := newTestApp(t, "")
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}
	waitSubscribers(t, app.events, 1)

	app.credit(t, 42)

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	if event != "game" {
		t.Errorf("event = %q, want game", event)
	}
	var ev session.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if ev.Type != session.EventBalance || ev.Balance != 42 {
		t.Errorf("event = %+v", ev)
	}
}

func TestEventsWebSocket(t *testing.T) {
	app := newTestApp(t, "")
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	waitSubscribers(t, app.events, 1)

	app.credit(t, 25)
	if rec := app.do(t, http.MethodPost, "/api/bots/like/unlock", nil); rec.Code != http.StatusOK {
		t.Fatalf("unlock = %d", rec.Code)
	}

	want := []session.EventType{
		session.EventBalance,
		session.EventNotification,
		session.EventUnlock,
	}
	for _, w := range want {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev session.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != w {
			t.Errorf("event = %q, want %q", ev.Type, w)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")
	waitSubscribers(t, app.events, 0)
}
