package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	loop := bridge.New(16, time.Second)
	e := New(loop, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	require.Eventually(t, e.Online, time.Second, time.Millisecond)
	return e
}

func TestJoinRequiresKnownGuild(t *testing.T) {
	e := testEngine(t)
	_, err := e.Join(domain.GuildID(999))
	require.ErrorIs(t, err, core.ErrUnknownGuild)
}

func TestJoinIsIdempotent(t *testing.T) {
	e := testEngine(t)
	e.RegisterGuild(domain.Guild{ID: 123, Name: "g"})

	s1, err := e.Join(123)
	require.NoError(t, err)
	s2, err := e.Join(123)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, e.SessionCount())
}

func TestLeaveClosesSession(t *testing.T) {
	e := testEngine(t)
	e.RegisterGuild(domain.Guild{ID: 123, Name: "g"})
	s, err := e.Join(123)
	require.NoError(t, err)

	assert.True(t, e.Leave(123))
	_, ok := e.Session(123)
	assert.False(t, ok)
	// The stale handle reports itself closed so readers skip it.
	_, ok = s.Summary()
	assert.False(t, ok)
	assert.False(t, e.Leave(123), "second leave has nothing to destroy")
}

func TestReapIdleKeepsActiveSessions(t *testing.T) {
	loop := bridge.New(16, time.Second)
	e := New(loop, Options{IdleTTL: 10 * time.Millisecond})
	e.RegisterGuild(domain.Guild{ID: 1, Name: "idle"})
	e.RegisterGuild(domain.Guild{ID: 2, Name: "busy"})

	_, err := e.Join(1)
	require.NoError(t, err)
	busy, err := e.Join(2)
	require.NoError(t, err)
	busy.AddTracks([]domain.Track{{VideoID: "x"}}) // playing, never idle

	time.Sleep(20 * time.Millisecond)
	e.reapIdle(time.Now())

	_, ok := e.Session(1)
	assert.False(t, ok, "idle session should be reaped")
	_, ok = e.Session(2)
	assert.True(t, ok, "playing session must survive")
}

func TestDirectory(t *testing.T) {
	e := testEngine(t)
	e.RegisterGuild(domain.Guild{ID: 1, Name: "one", MemberCount: 10})
	e.RegisterGuild(domain.Guild{ID: 2, Name: "two", MemberCount: 20})

	assert.Len(t, e.Guilds(), 2)
	g, ok := e.Guild(2)
	require.True(t, ok)
	assert.Equal(t, "two", g.Name)
	assert.True(t, e.Online())
	assert.False(t, e.StartTime().IsZero())
}
