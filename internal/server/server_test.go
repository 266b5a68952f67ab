package server

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openuno/cardroom/internal/lobby"
)

func TestServerHealth(t *testing.T) {
	t.Parallel()
	registry := lobby.NewRegistry(testLogger())
	srv := NewServer(registry, rand.New(rand.NewSource(42)), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, err := http.Get(s.ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketEndpointRefusesPlainGET(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, err := http.Get(s.ts.URL + "/ws")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	t.Run("canonicalizes identity and issues a token", func(t *testing.T) {
		s := newTestServer(t)
		c := s.dial(t)

		c.send(MessageTypeAuth, AuthData{Identity: "  Alice@Example.COM "})

		var resp AuthResponseData
		c.expect(MessageTypeAuthResponse, &resp)

		assert.True(t, resp.Success)
		assert.Equal(t, "alice@example.com", resp.Identity)
		assert.NotEmpty(t, resp.Token)

		// The initial lobby listing follows immediately.
		var list SessionListData
		c.expect(MessageTypeSessionList, &list)
		assert.Empty(t, list.Sessions)
	})

	t.Run("rejects empty identity", func(t *testing.T) {
		s := newTestServer(t)
		c := s.dial(t)

		c.send(MessageTypeAuth, AuthData{Identity: "   "})

		var resp AuthResponseData
		c.expect(MessageTypeAuthResponse, &resp)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("privileged messages require auth", func(t *testing.T) {
		s := newTestServer(t)
		c := s.dial(t)

		c.send(MessageTypeCreateSession, CreateSessionData{})

		var errData ErrorData
		c.expect(MessageTypeError, &errData)
		assert.Equal(t, "not_authenticated", errData.Code)
	})
}

func TestUnknownMessageType(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.dial(t)
	c.auth("alice")

	c.send("frobnicate", struct{}{})

	var errData ErrorData
	c.expect(MessageTypeError, &errData)
	assert.Equal(t, "unknown_message_type", errData.Code)
}

func TestDisconnectLeavesSessionIntact(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	owner := s.dial(t)
	owner.auth("alice")
	code := owner.createSession("uno")

	guest := s.dial(t)
	guest.auth("bob")
	guest.send(MessageTypeJoinSession, JoinSessionData{Code: code})
	guest.expect(MessageTypeSessionJoined, nil)

	// A dropped connection removes the socket from broadcast groups but
	// not the identity from the session.
	_ = guest.conn.Close()

	require.Eventually(t, func() bool {
		session, ok := s.registry.Get(code)
		return ok && len(session.Participants) == 2
	}, time.Second, 10*time.Millisecond)
}
