package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/skillbridge/skillbridge/internal/domain"
)

type fakeChallengeStore struct {
	domain.ChallengeStore
	challenge *domain.Challenge
}

func (f *fakeChallengeStore) Get(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	if f.challenge == nil || f.challenge.ID != id {
		return nil, domain.ErrNotFound
	}
	copied := *f.challenge
	return &copied, nil
}

type fakeMessageStore struct {
	domain.MessageStore
	created []domain.Message
}

func (f *fakeMessageStore) Create(ctx context.Context, m *domain.Message) error {
	f.created = append(f.created, *m)
	return nil
}

func testHub(t *testing.T, ch *domain.Challenge) (*Hub, *fakeMessageStore, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messages := &fakeMessageStore{}
	hub := NewHub(&fakeChallengeStore{challenge: ch}, messages, logger, nil)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, messages, srv
}

func dial(t *testing.T, srv *httptest.Server, challengeID, profileID uuid.UUID) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(srv.URL, "http://", "ws://", 1) +
		"?challenge_id=" + challengeID.String() + "&profile_id=" + profileID.String()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{chatSubprotocol},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out Outbound
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return out
}

func TestChatBroadcastPersistsAndReachesRoom(t *testing.T) {
	challenge := &domain.Challenge{
		ID:     uuid.New(),
		Title:  "Migration war room",
		Status: domain.ChallengeOngoing,
	}
	_, messages, srv := testHub(t, challenge)

	alice := uuid.New()
	bob := uuid.New()
	aliceConn := dial(t, srv, challenge.ID, alice)
	bobConn := dial(t, srv, challenge.ID, bob)

	ctx := context.Background()
	if err := aliceConn.Write(ctx, websocket.MessageText, []byte(`{"content":"hello"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		out := readOutbound(t, conn)
		if out.Type != "message" {
			t.Fatalf("type = %q, want message", out.Type)
		}
		if out.Content != "hello" {
			t.Errorf("content = %q", out.Content)
		}
		if out.SenderProfileID != alice.String() {
			t.Errorf("sender = %q, want %q", out.SenderProfileID, alice)
		}
	}

	if len(messages.created) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(messages.created))
	}
	if messages.created[0].Content != "hello" {
		t.Errorf("persisted content = %q", messages.created[0].Content)
	}
}

func TestChatRejectsCompletedChallenge(t *testing.T) {
	challenge := &domain.Challenge{
		ID:     uuid.New(),
		Status: domain.ChallengeCompleted,
	}
	_, messages, srv := testHub(t, challenge)

	conn := dial(t, srv, challenge.ID, uuid.New())

	ctx := context.Background()
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"content":"too late"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := readOutbound(t, conn)
	if out.Type != "error" {
		t.Fatalf("type = %q, want error", out.Type)
	}
	if out.Error != "challenge is completed" {
		t.Errorf("error = %q", out.Error)
	}
	if len(messages.created) != 0 {
		t.Errorf("completed challenge must not accept messages, got %d", len(messages.created))
	}
}

func TestChatRejectsMalformedFrame(t *testing.T) {
	challenge := &domain.Challenge{
		ID:     uuid.New(),
		Status: domain.ChallengeOngoing,
	}
	_, messages, srv := testHub(t, challenge)

	conn := dial(t, srv, challenge.ID, uuid.New())

	ctx := context.Background()
	if err := conn.Write(ctx, websocket.MessageText, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := readOutbound(t, conn)
	if out.Type != "error" {
		t.Fatalf("type = %q, want error", out.Type)
	}
	if len(messages.created) != 0 {
		t.Errorf("malformed frame must not be persisted")
	}
}

func TestUpgradeRejectsUnknownChallenge(t *testing.T) {
	challenge := &domain.Challenge{ID: uuid.New(), Status: domain.ChallengeOngoing}
	_, _, srv := testHub(t, challenge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(srv.URL, "http://", "ws://", 1) +
		"?challenge_id=" + uuid.NewString() + "&profile_id=" + uuid.NewString()
	_, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown challenge")
	}
}
