package server

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/openuno/cardroom/internal/lobby"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// testServer wires a full gateway onto an httptest listener.
type testServer struct {
	ts       *httptest.Server
	srv      *Server
	registry *lobby.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testLogger()
	registry := lobby.NewRegistry(logger, lobby.WithCapacities(map[string]int{
		lobby.DefaultGameType: 4,
		"duo":                 2,
	}))
	srv := NewServer(registry, rand.New(rand.NewSource(42)), logger)
	go srv.run()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Stop()
	})

	return &testServer{ts: ts, srv: srv, registry: registry}
}

// testClient is one WebSocket client talking to a test server.
type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *testServer) dial(t *testing.T) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (tc *testClient) send(msgType MessageType, data interface{}) {
	tc.t.Helper()
	msg, err := NewMessage(msgType, data)
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.conn.WriteJSON(msg))
}

// expect reads messages until one of the wanted type arrives, skipping
// unrelated broadcasts, and decodes its payload into out.
func (tc *testClient) expect(msgType MessageType, out interface{}) {
	tc.t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(tc.t, tc.conn.SetReadDeadline(deadline))

		var msg Message
		require.NoError(tc.t, tc.conn.ReadJSON(&msg), "waiting for %s", msgType)

		if msg.Type != msgType {
			continue
		}
		if out != nil {
			require.NoError(tc.t, json.Unmarshal(msg.Data, out))
		}
		return
	}
}

// expectNone asserts that no message of the given type arrives within the
// window. Other messages are ignored.
func (tc *testClient) expectNone(msgType MessageType, window time.Duration) {
	tc.t.Helper()

	deadline := time.Now().Add(window)
	for {
		_ = tc.conn.SetReadDeadline(deadline)

		var msg Message
		if err := tc.conn.ReadJSON(&msg); err != nil {
			return // window elapsed without seeing it
		}
		require.NotEqual(tc.t, msgType, msg.Type, "unexpected %s", msgType)
	}
}

// auth authenticates and swallows the auth response plus the initial
// session list push.
func (tc *testClient) auth(id string) {
	tc.t.Helper()

	tc.send(MessageTypeAuth, AuthData{Identity: id})

	var resp AuthResponseData
	tc.expect(MessageTypeAuthResponse, &resp)
	require.True(tc.t, resp.Success)

	tc.expect(MessageTypeSessionList, nil)
}

// createSession creates a session and returns its code.
func (tc *testClient) createSession(gameType string) string {
	tc.t.Helper()

	tc.send(MessageTypeCreateSession, CreateSessionData{GameType: gameType})

	var ack SessionAckData
	tc.expect(MessageTypeSessionCreated, &ack)
	require.NotEmpty(tc.t, ack.Code)
	return ack.Code
}
