package chat

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/internal/observability/metrics"
	"github.com/careport/clinic-booking/pkg/logging"
)

// clientEvent is the envelope clients send over the socket.
type clientEvent struct {
	Type            string `json:"type"`
	TargetPatientID string `json:"targetPatientId,omitempty"`
	Content         string `json:"content,omitempty"`
}

// serverEvent is the envelope pushed to clients.
type serverEvent struct {
	Type    string       `json:"type"`
	Message *MessageJSON `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// MessageJSON is the wire form of a persisted message.
type MessageJSON struct {
	ID             uuid.UUID `json:"id"`
	ChannelOwnerID uuid.UUID `json:"channelOwnerId"`
	SenderID       uuid.UUID `json:"senderId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func messageJSON(m *Message) *MessageJSON {
	return &MessageJSON{
		ID:             m.ID,
		ChannelOwnerID: m.ChannelOwnerID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}
}

// WSHandler upgrades HTTP requests into authenticated chat sessions.
type WSHandler struct {
	verifier *identity.Verifier
	svc      *Service
	hub      *Hub
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(verifier *identity.Verifier, svc *Service, hub *Hub, m *metrics.ChatMetrics, logger *logging.Logger) *WSHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WSHandler{
		verifier: verifier,
		svc:      svc,
		hub:      hub,
		metrics:  m,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The admin panel and the mobile app connect from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates, upgrades and runs the session's read loop.
// An invalid token terminates the connection before any session exists.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	sess := NewSession(conn, id)
	h.metrics.ConnOpened()
	h.logger.Info("chat connected", "user_id", id.UserID, "role", id.Role)

	// Patients live on their own channel; staff join targets explicitly.
	if !id.IsStaff() {
		h.hub.Join(sess, id.UserID)
	}

	defer func() {
		h.hub.Disconnect(sess)
		_ = conn.Close()
		h.metrics.ConnClosed()
		h.logger.Info("chat disconnected", "user_id", id.UserID)
	}()

	for {
		var ev clientEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		h.handleEvent(r, sess, ev)
	}
}

func (h *WSHandler) handleEvent(r *http.Request, sess *Session, ev clientEvent) {
	switch ev.Type {
	case "joinRoom":
		// Patients cannot join arbitrary channels; the attempt is ignored,
		// not an error.
		if !sess.Identity().IsStaff() {
			return
		}
		target, err := uuid.Parse(ev.TargetPatientID)
		if err != nil {
			_ = sess.Send(serverEvent{Type: "error", Error: "targetPatientId must be a valid UUID"})
			return
		}
		h.hub.Join(sess, target)
		h.logger.Info("staff joined channel", "staff_id", sess.Identity().UserID, "channel_owner", target)

	case "sendMessage":
		var target *uuid.UUID
		if ev.TargetPatientID != "" {
			parsed, err := uuid.Parse(ev.TargetPatientID)
			if err != nil {
				_ = sess.Send(serverEvent{Type: "error", Error: "targetPatientId must be a valid UUID"})
				return
			}
			target = &parsed
		}

		msg, err := h.svc.Save(r.Context(), sess.Identity(), target, ev.Content)
		if err != nil {
			// A failed message never takes the connection down; the sender
			// alone hears about it.
			h.metrics.ObserveBroadcast("rejected")
			_ = sess.Send(serverEvent{Type: "error", Error: errText(err)})
			return
		}

		delivered := h.hub.Broadcast(msg.ChannelOwnerID, serverEvent{Type: "newMessage", Message: messageJSON(msg)})
		h.metrics.ObserveBroadcast("delivered")
		h.logger.Debug("message broadcast", "channel_owner", msg.ChannelOwnerID, "deliveries", delivered)

	default:
		_ = sess.Send(serverEvent{Type: "error", Error: "unknown event type"})
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(err.Error(), "insert chat message") {
		return "message could not be saved"
	}
	return err.Error()
}

// bearerToken pulls the identity token from the Authorization header or,
// for browser WebSocket clients that cannot set headers, the token query
// parameter.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
