package websocket

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection() (*connection, *bytes.Buffer) {
	var out bytes.Buffer
	bufrw := bufio.NewReadWriter(bufio.NewReader(&bytes.Buffer{}), bufio.NewWriter(&out))

	return &connection{session: "test-session", bufrw: bufrw}, &out
}

// decodeFrame - strips the server frame header and returns the payload.
func decodeFrame(t *testing.T, raw []byte) []byte {
	t.Helper()

	require.GreaterOrEqual(t, len(raw), 2)
	require.Equal(t, byte(0x81), raw[0]) // FIN + text opcode

	payloadLen := int(raw[1] & 0x7f)
	offset := 2

	switch {
	case payloadLen == 126:
		payloadLen = int(raw[2])<<8 | int(raw[3])
		offset = 4
	case payloadLen == 127:
		t.Fatal("unexpected 64-bit frame in test")
	}

	require.Len(t, raw[offset:], payloadLen)

	return raw[offset:]
}

func TestHub_BroadcastMatch(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	t.Run("Subscriber receives the full snapshot", func(t *testing.T) {
		// Given: a hub with one subscriber of a match
		hub := NewHub(logger)
		conn, out := newTestConnection()

		match := entity.NewMatch("match-1", "player-a", "player-b", 3, 11)
		match.Status = entity.StatusInProgress
		match.PointsA = 5
		match.Events = []entity.ScoringEvent{{Type: entity.EventPoint, Player: entity.SideA}}

		hub.Subscribe(match.ID, conn)

		// When: a snapshot is broadcast
		hub.BroadcastMatch("point_scored", match)

		// Then: the subscriber got one self-contained frame
		var message Message
		require.NoError(t, json.Unmarshal(decodeFrame(t, out.Bytes()), &message))
		assert.Equal(t, "point_scored", message.Action)

		var payload Payload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))
		require.NotNil(t, payload.Match)
		assert.Equal(t, 5, payload.Match.PointsA)
		assert.Equal(t, entity.StatusInProgress, payload.Match.Status)

		// Then: the undo log never leaves the server
		assert.Empty(t, payload.Match.Events)
	})

	t.Run("Unsubscribed viewer is not pushed to", func(t *testing.T) {
		// Given: a subscriber that left the match
		hub := NewHub(logger)
		conn, out := newTestConnection()

		match := entity.NewMatch("match-1", "player-a", "player-b", 3, 11)

		hub.Subscribe(match.ID, conn)
		hub.Unsubscribe(match.ID, conn)

		// When: a snapshot is broadcast
		hub.BroadcastMatch("match_state", match)

		// Then: nothing was written
		assert.Zero(t, out.Len())
	})

	t.Run("Drop removes the viewer from every match", func(t *testing.T) {
		// Given: one viewer watching two matches
		hub := NewHub(logger)
		conn, out := newTestConnection()

		hub.Subscribe("match-1", conn)
		hub.Subscribe("match-2", conn)

		// When: the connection is dropped
		hub.Drop(conn)

		hub.BroadcastMatch("match_state", entity.NewMatch("match-1", "a", "b", 3, 11))
		hub.BroadcastMatch("match_state", entity.NewMatch("match-2", "a", "b", 3, 11))

		// Then: no frame reached the dead connection
		assert.Zero(t, out.Len())
	})
}

func TestGenerateAcceptKey(t *testing.T) {
	// the handshake sample from RFC 6455 section 1.3
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", GenerateAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}
