package ws

import (
	"ridehailgo/internal/services/identity"
	"sync"
)

type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
)

// session is the per-connection state: who is connected, in which role, and
// which groups the connection currently belongs to. It is created at accept
// and torn down exactly once at disconnect, no matter how many times
// teardown is requested.
type session struct {
	conn *clientConn
	user *identity.UserDTO // nil for anonymous connects
	role Role

	mu     sync.Mutex
	groups map[string]struct{}
	closed bool
}

func newSession(conn *clientConn, user *identity.UserDTO, role Role) *session {
	return &session{
		conn:   conn,
		user:   user,
		role:   role,
		groups: make(map[string]struct{}),
	}
}

// subscribe records the group membership and joins the hub room. Safe to call
// repeatedly for the same group. The hub join happens under s.mu so a
// teardown racing in from another goroutine either sees the membership or
// runs before it exists; it can never miss a join in flight.
func (s *session) subscribe(hub *Hub, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.groups[group] = struct{}{}
	hub.Join(group, s.conn)
}

// teardown unwinds every registry membership the session holds. Idempotent,
// and callable from a goroutine other than the connection's reader.
func (s *session) teardown(hub *Hub) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	groups := make([]string, 0, len(s.groups))
	for g := range s.groups {
		groups = append(groups, g)
	}
	s.groups = nil
	s.mu.Unlock()

	for _, g := range groups {
		hub.Leave(g, s.conn)
	}
}
