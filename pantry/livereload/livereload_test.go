package livereload

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestInject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"body", "<html><body><p>x</p></body></html>", "<html><body><p>x</p>" + Script + "</body></html>"},
		{"upper case", "<BODY>x</BODY>", "<BODY>x" + Script + "</BODY>"},
		{"last body wins", "<pre></body></pre></body>", "<pre></body></pre>" + Script + "</body>"},
		{"fragment", "<p>x</p>", "<p>x</p>" + Script},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inject(tt.in); got != tt.want {
				t.Errorf("Inject = %q, want %q", got, tt.want)
			}
		})
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, srv.URL+Path, nil)
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	defer c.CloseNow()
	waitFor(t, func() bool { return hub.Clients() == 1 })

	if n := hub.Reload(ctx); n != 1 {
		t.Fatalf("Reload sent %d, want 1", n)
	}
	typ, msg, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read error = %v", err)
	}
	if typ != websocket.MessageText || string(msg) != Message {
		t.Errorf("message = %v %q", typ, msg)
	}

	go hub.Close()
	_, _, err = c.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusGoingAway {
		t.Errorf("close status = %v (err %v), want StatusGoingAway", got, err)
	}
	waitFor(t, func() bool { return hub.Clients() == 0 })

	// A closed hub turns new pages away.
	c2, _, err := websocket.Dial(ctx, srv.URL+Path, nil)
	if err != nil {
		t.Fatalf("second Dial error = %v", err)
	}
	defer c2.CloseNow()
	if _, _, err := c2.Read(ctx); websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Errorf("second connection err = %v", err)
	}
}

func TestHub_ClientGone(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx := context.Background()
	c, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return hub.Clients() == 1 })
	c.Close(websocket.StatusNormalClosure, "")
	waitFor(t, func() bool { return hub.Clients() == 0 })

	if n := hub.Reload(ctx); n != 0 {
		t.Errorf("Reload sent %d after the page left", n)
	}
}

func TestScript(t *testing.T) {
	if !strings.Contains(Script, `"`+Path+`"`) || !strings.HasPrefix(Script, "<script>") {
		t.Errorf("Script = %s", Script)
	}
}
