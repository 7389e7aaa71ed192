package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConnPair upgrades a loopback websocket and returns the server side
// wrapped as a clientConn plus the raw client side.
func newConnPair(t *testing.T) (*clientConn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverSide <- conn
	}))
	t.Cleanup(ts.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { client.Close() })

	return &clientConn{rawConn: <-serverSide}, client
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout"), "expected read timeout, got: %v", err)
}

func (h *Hub) memberCount(group string) int {
	h.mu.Lock()
	r, ok := h.rooms[group]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	hub := NewHub()
	s1, c1 := newConnPair(t)
	s2, c2 := newConnPair(t)
	_, c3 := newConnPair(t)

	hub.Join("trip1", s1)
	hub.Join("trip1", s2)

	hub.Broadcast("trip1", []byte(`{"message":"test"}`))

	assert.JSONEq(t, `{"message":"test"}`, readText(t, c1))
	assert.JSONEq(t, `{"message":"test"}`, readText(t, c2))
	expectSilence(t, c3)
}

func TestBroadcastToUnknownGroupIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("nobody-home", []byte("x"))
}

func TestLeaveStopsDeliveryAndPrunesRoom(t *testing.T) {
	hub := NewHub()
	s1, c1 := newConnPair(t)

	hub.Join("trip1", s1)
	require.Equal(t, 1, hub.memberCount("trip1"))

	hub.Leave("trip1", s1)
	hub.Broadcast("trip1", []byte("x"))

	expectSilence(t, c1)
	hub.mu.Lock()
	_, stillThere := hub.rooms["trip1"]
	hub.mu.Unlock()
	assert.False(t, stillThere)

	// Leaving again must be harmless.
	hub.Leave("trip1", s1)
}

func TestJoinDuringLeavePruneKeepsMember(t *testing.T) {
	// A join racing the prune of a drained room must never land in an
	// orphaned room; the joining member has to stay reachable.
	c1 := &clientConn{}
	c2 := &clientConn{}

	for i := 0; i < 2000; i++ {
		hub := NewHub()
		hub.Join("g", c2)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Join("g", c1)
		}()
		go func() {
			defer wg.Done()
			hub.Leave("g", c2)
		}()
		wg.Wait()

		require.Equal(t, 1, hub.memberCount("g"), "joining member lost on iteration %d", i)
	}
}

func TestBroadcastPrunesDeadMember(t *testing.T) {
	hub := NewHub()
	s1, _ := newConnPair(t)
	s2, c2 := newConnPair(t)

	hub.Join("trip1", s1)
	hub.Join("trip1", s2)

	// Kill the first member's socket; delivery to it must neither error nor
	// block delivery to the healthy one.
	require.NoError(t, s1.rawConn.Close())
	hub.Broadcast("trip1", []byte(`{"message":"test"}`))

	assert.JSONEq(t, `{"message":"test"}`, readText(t, c2))
	assert.Equal(t, 1, hub.memberCount("trip1"))
}
