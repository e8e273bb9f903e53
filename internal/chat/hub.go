package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/identity"
)

// Conn is the write side of a live connection. *websocket.Conn satisfies it;
// tests substitute a recorder.
type Conn interface {
	WriteJSON(v any) error
}

// Session binds one live connection to the identity it authenticated as.
type Session struct {
	conn Conn
	id   identity.Identity

	// writeMu serialises writes: gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

func NewSession(conn Conn, id identity.Identity) *Session {
	return &Session{conn: conn, id: id}
}

func (s *Session) Identity() identity.Identity {
	return s.id
}

// Send writes one JSON envelope to this session only.
func (s *Session) Send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub is the live membership registry: which sessions are joined to which
// patient channel. Membership is mutated only by Join and Disconnect and read
// under a short-lived lock at broadcast time.
type Hub struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[uuid.UUID]map[*Session]struct{}),
	}
}

// Join adds the session to the channel owned by the given patient.
func (h *Hub) Join(sess *Session, channelOwnerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[channelOwnerID]
	if !ok {
		members = make(map[*Session]struct{})
		h.channels[channelOwnerID] = members
	}
	members[sess] = struct{}{}
}

// Disconnect removes the session from every channel it joined.
func (h *Hub) Disconnect(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for owner, members := range h.channels {
		delete(members, sess)
		if len(members) == 0 {
			delete(h.channels, owner)
		}
	}
}

// Broadcast sends the envelope to every session joined to the channel,
// including the sender if joined. Returns the number of deliveries attempted.
func (h *Hub) Broadcast(channelOwnerID uuid.UUID, v any) int {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.channels[channelOwnerID]))
	for sess := range h.channels[channelOwnerID] {
		members = append(members, sess)
	}
	h.mu.RUnlock()

	for _, sess := range members {
		// A failed write means the peer is going away; its read loop will
		// observe the error and disconnect the session.
		_ = sess.Send(v)
	}
	return len(members)
}

// Members reports how many sessions are joined to a channel.
func (h *Hub) Members(channelOwnerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelOwnerID])
}
