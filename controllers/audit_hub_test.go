package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *AuditHub) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/live", hub.Serve)
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	// The dial returns on the handshake response; wait until Serve has
	// actually registered the connection.
	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, func() { _ = conn.Close(); srv.Close() }
}

func TestAuditHubBroadcast(t *testing.T) {
	hub := NewAuditHub()
	conn, done := dialHub(t, hub)
	defer done()

	hub.BroadcastProgress("audit-1", 3, 40)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var p auditProgress
	if err := json.Unmarshal(msg, &p); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if p.AuditID != "audit-1" || p.Counted != 3 || p.Expected != 40 {
		t.Errorf("progress = %+v", p)
	}
}

// Several scanners counting at once broadcast from concurrent handler
// goroutines; every frame must still arrive intact.
func TestAuditHubConcurrentBroadcast(t *testing.T) {
	hub := NewAuditHub()
	conn, done := dialHub(t, hub)
	defer done()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.BroadcastProgress("audit-1", i, n)
		}(i)
	}
	wg.Wait()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < n; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var p auditProgress
		if err := json.Unmarshal(msg, &p); err != nil {
			t.Fatalf("frame %d corrupted: %v", i, err)
		}
		if p.AuditID != "audit-1" || p.Expected != n {
			t.Errorf("frame %d = %+v", i, p)
		}
	}
}

func TestAuditHubDroppedClient(t *testing.T) {
	hub := NewAuditHub()
	conn, done := dialHub(t, hub)

	_ = conn.Close()
	done()

	// Broadcasting after the client hung up must not wedge the pump.
	hub.BroadcastProgress("audit-1", 1, 10)

	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
