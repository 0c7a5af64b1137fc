package app

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/domain"
	"github.com/dkeye/Maestro/internal/engine"
)

func snapshotEngine(t *testing.T) *engine.Engine {
	t.Helper()
	loop := bridge.New(16, time.Second)
	eng := engine.New(loop, engine.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)
	return eng
}

func TestAssembleEmptyEngine(t *testing.T) {
	eng := snapshotEngine(t)
	snap := Assemble(eng)

	assert.Equal(t, 0, snap.Servers)
	assert.Equal(t, 0, snap.Sessions)
	assert.Empty(t, snap.Data)
	assert.Regexp(t, regexp.MustCompile(`^\d+h \d+m$`), snap.Uptime)
}

func TestAssembleListsSessions(t *testing.T) {
	eng := snapshotEngine(t)
	eng.RegisterGuild(domain.Guild{ID: 1, Name: "one"})
	eng.RegisterGuild(domain.Guild{ID: 2, Name: "two"})
	s, err := eng.Join(1)
	require.NoError(t, err)
	s.AddTracks([]domain.Track{{VideoID: "a", Title: "song"}, {VideoID: "b"}})

	snap := Assemble(eng)
	assert.Equal(t, 2, snap.Servers)
	assert.Equal(t, 1, snap.Sessions)
	require.Len(t, snap.Data, 1)
	sum := snap.Data[0]
	assert.Equal(t, "1", sum.GuildID)
	assert.Equal(t, "one", sum.GuildName)
	require.NotNil(t, sum.CurrentSong)
	assert.Equal(t, "song", sum.CurrentSong.Title)
	assert.Equal(t, 1, sum.QueueSize)
}

func TestAssembleSkipsVanishedSession(t *testing.T) {
	eng := snapshotEngine(t)
	eng.RegisterGuild(domain.Guild{ID: 1, Name: "one"})
	eng.RegisterGuild(domain.Guild{ID: 2, Name: "two"})
	_, err := eng.Join(1)
	require.NoError(t, err)
	_, err = eng.Join(2)
	require.NoError(t, err)

	// Session 2 vanishes mid-flight; the snapshot silently drops it
	// instead of failing the whole assembly.
	eng.Leave(2)

	snap := Assemble(eng)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "1", snap.Data[0].GuildID)
}

func TestAssembleReducedHasNoPlaybackDetail(t *testing.T) {
	eng := snapshotEngine(t)
	eng.RegisterGuild(domain.Guild{ID: 1, Name: "one"})
	s, err := eng.Join(1)
	require.NoError(t, err)
	s.AddTracks([]domain.Track{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c"}})

	reduced := AssembleReduced(eng)
	assert.Equal(t, 1, reduced.Servers)
	assert.Equal(t, 1, reduced.Sessions)
	require.Len(t, reduced.Data, 1)
	assert.Equal(t, "one", reduced.Data[0].GuildName)
	assert.Equal(t, 2, reduced.Data[0].QueueSize)
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0h 0m"},
		{59 * time.Second, "0h 0m"},
		{61 * time.Second, "0h 1m"},
		{3*time.Hour + 7*time.Minute, "3h 7m"},
		{25 * time.Hour, "25h 0m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatUptime(tc.d), tc.d.String())
	}
}
