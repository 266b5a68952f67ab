package lobby

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRegistry(opts ...Option) *Registry {
	return NewRegistry(testLogger(), opts...)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	s, err := r.Create("alice", "uno")
	require.NoError(t, err)

	assert.NotEmpty(t, s.Code)
	assert.Equal(t, "alice", s.Owner)
	assert.Equal(t, "uno", s.GameType)
	assert.Equal(t, []string{"alice"}, s.Participants)
	assert.Equal(t, 4, s.Capacity)
	assert.Equal(t, StatusPending, s.Status)
}

func TestCreateDefaultsGameType(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	s, err := r.Create("alice", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultGameType, s.GameType)
	assert.Equal(t, 4, s.Capacity)
}

func TestCreateUnknownGameTypeGetsTwoSeats(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	s, err := r.Create("alice", "checkers")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Capacity)
}

func TestCreateRejectsEmptyIdentity(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	_, err := r.Create("", "uno")
	assert.ErrorIs(t, err, ErrBadIdentity)
}

func TestCreateStampsCreatedAt(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	now := clock.Now()
	r := newTestRegistry(WithClock(clock))

	s, err := r.Create("alice", "uno")
	require.NoError(t, err)
	assert.True(t, s.CreatedAt.Equal(now))
}

func TestJoin(t *testing.T) {
	t.Parallel()

	t.Run("appends participants in order", func(t *testing.T) {
		r := newTestRegistry()
		s, err := r.Create("alice", "uno")
		require.NoError(t, err)

		joined, err := r.Join("bob", s.Code)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, joined.Participants)
	})

	t.Run("unknown code", func(t *testing.T) {
		r := newTestRegistry()
		_, err := r.Join("bob", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate identity", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")

		_, err := r.Join("alice", s.Code)
		assert.ErrorIs(t, err, ErrAlreadyJoined)
	})

	t.Run("duplicate identity is case-insensitive", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")

		_, err := r.Join("ALICE", s.Code)
		assert.ErrorIs(t, err, ErrAlreadyJoined)
	})
}

// The capacity scenario: a four-seat game fills with A, B, C, D and E is
// turned away with the participant list intact.
func TestJoinCapacity(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	s, err := r.Create("a", "uno")
	require.NoError(t, err)

	for _, who := range []string{"b", "c", "d"} {
		_, err := r.Join(who, s.Code)
		require.NoError(t, err)
	}

	_, err = r.Join("e", s.Code)
	assert.ErrorIs(t, err, ErrSessionFull)

	current, ok := r.Get(s.Code)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c", "d"}, current.Participants)
}

func TestActivate(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot activate", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")
		_, err := r.Join("bob", s.Code)
		require.NoError(t, err)

		_, err = r.Activate("bob", s.Code)
		assert.ErrorIs(t, err, ErrNotOwner)

		current, _ := r.Get(s.Code)
		assert.Equal(t, StatusPending, current.Status)
	})

	t.Run("owner activates", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")

		activated, err := r.Activate("alice", s.Code)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, activated.Status)
	})

	t.Run("owner match is case-insensitive", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")

		_, err := r.Activate("Alice", s.Code)
		require.NoError(t, err)
	})

	t.Run("unknown code", func(t *testing.T) {
		r := newTestRegistry()
		_, err := r.Activate("alice", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLeave(t *testing.T) {
	t.Parallel()

	t.Run("owner leaving destroys the session", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")
		_, err := r.Join("bob", s.Code)
		require.NoError(t, err)

		res, err := r.Leave("alice", s.Code)
		require.NoError(t, err)
		assert.True(t, res.Destroyed)

		_, ok := r.Get(s.Code)
		assert.False(t, ok)
	})

	t.Run("non-owner is removed", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")
		_, err := r.Join("bob", s.Code)
		require.NoError(t, err)

		res, err := r.Leave("bob", s.Code)
		require.NoError(t, err)
		assert.False(t, res.Destroyed)

		current, ok := r.Get(s.Code)
		require.True(t, ok)
		assert.Equal(t, []string{"alice"}, current.Participants)
		assert.Equal(t, "alice", current.Owner, "ownership never transfers")
	})

	t.Run("unknown participant", func(t *testing.T) {
		r := newTestRegistry()
		s, _ := r.Create("alice", "uno")

		_, err := r.Leave("mallory", s.Code)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown code", func(t *testing.T) {
		r := newTestRegistry()
		_, err := r.Leave("alice", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestList(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	r := newTestRegistry(WithClock(clock))

	uno, _ := r.Create("alice", "uno")
	clock.Advance(time.Second)
	other, _ := r.Create("bob", "checkers")
	clock.Advance(time.Second)
	active, _ := r.Create("carol", "uno")
	_, err := r.Activate("carol", active.Code)
	require.NoError(t, err)

	t.Run("all pending", func(t *testing.T) {
		list := r.List("")
		require.Len(t, list, 2)
		assert.Equal(t, uno.Code, list[0].Code, "oldest first")
		assert.Equal(t, other.Code, list[1].Code)
	})

	t.Run("filtered by game type", func(t *testing.T) {
		list := r.List("uno")
		require.Len(t, list, 1)
		assert.Equal(t, uno.Code, list[0].Code)
	})

	t.Run("active sessions are hidden", func(t *testing.T) {
		for _, s := range r.List("") {
			assert.NotEqual(t, active.Code, s.Code)
		}
	})
}

func TestSessionsOf(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()

	owned, _ := r.Create("alice", "uno")
	joined, _ := r.Create("bob", "uno")
	_, err := r.Join("alice", joined.Code)
	require.NoError(t, err)
	_, err = r.Create("carol", "uno")
	require.NoError(t, err)

	list := r.SessionsOf("alice")
	require.Len(t, list, 2)

	byCode := make(map[string]UserSession)
	for _, us := range list {
		byCode[us.Code] = us
	}
	assert.True(t, byCode[owned.Code].IsOwner)
	assert.False(t, byCode[joined.Code].IsOwner)
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	s, _ := r.Create("alice", "uno")

	// Mutating a returned snapshot must not leak into the registry.
	s.Participants[0] = "mallory"
	s.Owner = "mallory"

	current, ok := r.Get(s.Code)
	require.True(t, ok)
	assert.Equal(t, "alice", current.Owner)
	assert.Equal(t, []string{"alice"}, current.Participants)
}
