package events

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

type stubConn struct {
	mu       sync.Mutex
	writeErr error
	messages chan []byte
	closed   bool
}

func newStubConn() *stubConn {
	return &stubConn{messages: make(chan []byte, 8)}
}

func (c *stubConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages <- data
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func receive(t *testing.T, conn *stubConn) Event {
	t.Helper()
	select {
	case raw := <-conn.messages:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestPublishReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := newStubConn()
	hub.register <- &Client{Conn: conn}

	hub.Publish(Event{Type: TypeTaskCompleted, TaskID: 7, Actor: "carol", At: time.Now()})

	ev := receive(t, conn)
	assert.Equal(t, TypeTaskCompleted, ev.Type)
	assert.Equal(t, 7, ev.TaskID)
	assert.Equal(t, "carol", ev.Actor)
}

func TestFailingClientIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bad := newStubConn()
	bad.writeErr = errors.New("write: broken pipe")
	good := newStubConn()
	hub.register <- &Client{Conn: bad}
	hub.register <- &Client{Conn: good}

	hub.Publish(Event{Type: TypeTaskCreated, TaskID: 1, At: time.Now()})
	assert.Equal(t, 1, receive(t, good).TaskID)
	assert.Eventually(t, bad.isClosed, time.Second, 10*time.Millisecond,
		"a client that cannot keep up is closed and removed")

	// The healthy client keeps receiving after the drop.
	hub.Publish(Event{Type: TypeTaskDeleted, TaskID: 2, At: time.Now()})
	assert.Equal(t, 2, receive(t, good).TaskID)
}

func TestPublishNeverBlocks(t *testing.T) {
	// No Run goroutine: the feed backs up and overflow must be dropped, not
	// block the request handler that published.
	hub := NewHub()
	for i := 0; i < 200; i++ {
		hub.Publish(Event{Type: TypeTaskUpdated, TaskID: i, At: time.Now()})
	}
	assert.Equal(t, cap(hub.broadcast), len(hub.broadcast))
}
