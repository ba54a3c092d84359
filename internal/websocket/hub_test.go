package websocket

import (
	"testing"
	"time"
)

func TestHubRegisterUnregister(t *testing.T) {
	c := newTestClient(t)
	hub := c.hub
	go hub.Run()

	hub.register <- c
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.unregister <- c
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Unregistering closed the send channel.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Errorf("Expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Errorf("Send channel still open")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Condition not met in time")
}
