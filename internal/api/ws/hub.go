// Package ws implements the challenge chat over WebSocket. Each challenge is
// a room; messages are persisted through the message store before being
// broadcast, so the REST history endpoint and the live stream always agree.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/observability"
)

const chatSubprotocol = "skillbridge-chat-v1"

// Inbound is a message received from a connected client.
type Inbound struct {
	Content string `json:"content"`
}

// Outbound is a frame sent to connected clients: either a broadcast chat
// message or an error for the sender.
type Outbound struct {
	Type            string    `json:"type"` // "message" or "error"
	ID              string    `json:"id,omitempty"`
	ChallengeID     string    `json:"challenge_id,omitempty"`
	SenderProfileID string    `json:"sender_profile_id,omitempty"`
	Content         string    `json:"content,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Hub manages per-challenge chat rooms.
type Hub struct {
	challenges domain.ChallengeStore
	messages   domain.MessageStore
	logger     *slog.Logger
	metrics    *observability.MetricsCollector // nil allowed

	mu    sync.Mutex
	rooms map[uuid.UUID]map[*client]struct{}
}

type client struct {
	conn      *websocket.Conn
	profileID uuid.UUID

	writeMu sync.Mutex
}

// NewHub creates a chat hub backed by the given stores.
func NewHub(challenges domain.ChallengeStore, messages domain.MessageStore, logger *slog.Logger, metrics *observability.MetricsCollector) *Hub {
	return &Hub{
		challenges: challenges,
		messages:   messages,
		logger:     logger,
		metrics:    metrics,
		rooms:      make(map[uuid.UUID]map[*client]struct{}),
	}
}

// Handler returns an http.Handler that upgrades connections to WebSocket.
// Expected query parameters: challenge_id and profile_id.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.handleUpgrade)
}

func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	challengeID, err := uuid.Parse(r.URL.Query().Get("challenge_id"))
	if err != nil {
		http.Error(w, "invalid challenge_id", http.StatusBadRequest)
		return
	}
	profileID, err := uuid.Parse(r.URL.Query().Get("profile_id"))
	if err != nil {
		http.Error(w, "invalid profile_id", http.StatusBadRequest)
		return
	}

	if _, err := h.challenges.Get(r.Context(), challengeID); err != nil {
		http.Error(w, "challenge not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{chatSubprotocol},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	h.handleConnection(r.Context(), conn, challengeID, profileID)
}

func (h *Hub) handleConnection(ctx context.Context, conn *websocket.Conn, challengeID, profileID uuid.UUID) {
	cl := &client{conn: conn, profileID: profileID}

	h.join(challengeID, cl)
	h.metrics.RecordChatConnection(1)
	h.logger.Info("chat client connected",
		slog.String("challenge_id", challengeID.String()),
		slog.String("profile_id", profileID.String()),
	)

	defer func() {
		h.leave(challengeID, cl)
		h.metrics.RecordChatConnection(-1)
		conn.Close(websocket.StatusNormalClosure, "connection closed")
		h.logger.Info("chat client disconnected",
			slog.String("challenge_id", challengeID.String()),
			slog.String("profile_id", profileID.String()),
		)
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("chat connection error",
					slog.String("profile_id", profileID.String()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil || in.Content == "" {
			h.sendError(ctx, cl, "message must be {\"content\": ...}")
			continue
		}

		h.handleMessage(ctx, cl, challengeID, in.Content)
	}
}

func (h *Hub) handleMessage(ctx context.Context, sender *client, challengeID uuid.UUID, content string) {
	// Re-check status on every message: the challenge may have completed
	// while the connection was open.
	ch, err := h.challenges.Get(ctx, challengeID)
	if err != nil {
		h.sendError(ctx, sender, "challenge not found")
		return
	}
	if ch.Completed() {
		h.sendError(ctx, sender, "challenge is completed")
		return
	}

	m := &domain.Message{
		ID:              uuid.New(),
		ChallengeID:     challengeID,
		SenderProfileID: sender.profileID,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.messages.Create(ctx, m); err != nil {
		h.logger.Error("chat message persistence failed",
			slog.String("challenge_id", challengeID.String()),
			slog.String("error", err.Error()),
		)
		h.sendError(ctx, sender, "failed to store message")
		return
	}

	h.metrics.RecordChatMessage()
	h.broadcast(ctx, challengeID, Outbound{
		Type:            "message",
		ID:              m.ID.String(),
		ChallengeID:     m.ChallengeID.String(),
		SenderProfileID: m.SenderProfileID.String(),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	})
}

func (h *Hub) join(challengeID uuid.UUID, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[challengeID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[challengeID] = room
	}
	room[cl] = struct{}{}
}

func (h *Hub) leave(challengeID uuid.UUID, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[challengeID]
	if !ok {
		return
	}
	delete(room, cl)
	if len(room) == 0 {
		delete(h.rooms, challengeID)
	}
}

// broadcast sends a frame to every client in the challenge room, the sender
// included. Slow or broken clients just miss the frame; their read loop will
// notice the dead connection.
func (h *Hub) broadcast(ctx context.Context, challengeID uuid.UUID, out Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.rooms[challengeID]))
	for cl := range h.rooms[challengeID] {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if err := cl.write(ctx, data); err != nil {
			h.logger.Debug("chat broadcast write failed",
				slog.String("profile_id", cl.profileID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (h *Hub) sendError(ctx context.Context, cl *client, msg string) {
	data, err := json.Marshal(Outbound{Type: "error", Error: msg})
	if err != nil {
		return
	}
	_ = cl.write(ctx, data)
}

func (cl *client) write(ctx context.Context, data []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.Write(ctx, websocket.MessageText, data)
}
