package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
	"github.com/dkeye/Maestro/internal/engine"
)

type stubResolver struct {
	search  func(ctx context.Context, query string) ([]domain.Track, error)
	related func(ctx context.Context, videoID string) ([]domain.Track, error)
}

func (r stubResolver) Search(ctx context.Context, query string) ([]domain.Track, error) {
	if r.search == nil {
		return nil, nil
	}
	return r.search(ctx, query)
}

func (r stubResolver) Related(ctx context.Context, videoID string) ([]domain.Track, error) {
	if r.related == nil {
		return nil, nil
	}
	return r.related(ctx, videoID)
}

type recordPub struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *recordPub) Publish(event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := payload.(map[string]any)
	p.events = append(p.events, m)
}

func (p *recordPub) last(t *testing.T) map[string]any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

func (p *recordPub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	d    *Dispatcher
	eng  *engine.Engine
	pub  *recordPub
	loop *bridge.Bridge
}

func newFixture(t *testing.T, resolver core.TrackResolver, timeout time.Duration) *fixture {
	t.Helper()
	loop := bridge.New(16, timeout)
	eng := engine.New(loop, engine.Options{})
	eng.RegisterGuild(domain.Guild{ID: 123, Name: "test guild", MemberCount: 5})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	pub := &recordPub{}
	d := NewDispatcher(resolver, pub)
	d.Attach(eng, loop)
	return &fixture{d: d, eng: eng, pub: pub, loop: loop}
}

func (f *fixture) join(t *testing.T, tracks ...domain.Track) core.Session {
	t.Helper()
	s, err := f.eng.Join(123)
	require.NoError(t, err)
	if len(tracks) > 0 {
		s.AddTracks(tracks)
	}
	return s
}

func TestCommandsBeforeAttachFail(t *testing.T) {
	d := NewDispatcher(stubResolver{}, nil)
	_, err := d.Status()
	require.ErrorIs(t, err, core.ErrEngineNotAttached)
	require.ErrorIs(t, d.Pause("123"), core.ErrEngineNotAttached)
	_, err = d.Play(context.Background(), "123", "song")
	require.ErrorIs(t, err, core.ErrEngineNotAttached)
}

func TestMalformedGuildIDIsClientError(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)

	commands := map[string]func(string) error{
		"pause":  f.d.Pause,
		"resume": f.d.Resume,
		"skip":   f.d.Skip,
		"stop":   f.d.Stop,
		"clear":  f.d.ClearQueue,
		"shuffle": func(id string) error {
			return f.d.Shuffle(id)
		},
		"volume": func(id string) error {
			return f.d.SetVolume(id, 50)
		},
		"loop": func(id string) error {
			return f.d.SetLoopMode(id, "off")
		},
		"play": func(id string) error {
			_, err := f.d.Play(context.Background(), id, "song")
			return err
		},
		"radio": func(id string) error {
			_, err := f.d.ToggleRadio(context.Background(), id)
			return err
		},
		"crossfade": func(id string) error {
			_, err := f.d.ToggleCrossfade(id)
			return err
		},
		"detail": func(id string) error {
			_, err := f.d.SessionDetail(id)
			return err
		},
		"join":  f.d.Join,
		"leave": f.d.Leave,
	}

	for name, run := range commands {
		for _, bad := range []string{"", "abc", "12x3", "12.5", "99999999999999999999999999"} {
			err := run(bad)
			assert.ErrorIs(t, err, domain.ErrInvalidGuildID, "%s(%q)", name, bad)
		}
	}
}

func TestNoActiveSession(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	// Guild 123 exists in the directory but has no session.
	require.ErrorIs(t, f.d.Pause("123"), core.ErrNoActiveSession)
	_, err := f.d.SessionDetail("123")
	require.ErrorIs(t, err, core.ErrNoActiveSession)
	_, err = f.d.Play(context.Background(), "123", "song")
	require.ErrorIs(t, err, core.ErrNoActiveSession)
}

func TestJoinCreatesSession(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)

	require.NoError(t, f.d.Join("123"))
	_, ok := f.eng.Session(123)
	assert.True(t, ok)
	assert.Equal(t, "joined", f.pub.last(t)["action"])

	// Joining again keeps the same session.
	require.NoError(t, f.d.Join("123"))
	assert.Equal(t, 1, f.eng.SessionCount())
}

func TestJoinUnknownGuild(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	require.ErrorIs(t, f.d.Join("999"), core.ErrUnknownGuild)
	assert.Equal(t, 0, f.pub.count(), "failed command must not notify")
}

func TestLeaveDestroysSession(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)

	require.NoError(t, f.d.Leave("123"))
	_, ok := f.eng.Session(123)
	assert.False(t, ok)
	assert.Equal(t, "left", f.pub.last(t)["action"])

	require.ErrorIs(t, f.d.Leave("123"), core.ErrNoActiveSession)
}

func TestPauseTwiceStillSucceeds(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t, domain.Track{VideoID: "a"})

	require.NoError(t, f.d.Pause("123"))
	require.NoError(t, f.d.Pause("123"))
	require.NoError(t, f.d.Resume("123"))
	require.NoError(t, f.d.Resume("123"))
	assert.Equal(t, 4, f.pub.count())
}

func TestVolumeBounds(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)

	require.ErrorIs(t, f.d.SetVolume("123", -1), core.ErrVolumeOutOfRange)
	require.ErrorIs(t, f.d.SetVolume("123", 101), core.ErrVolumeOutOfRange)
	require.NoError(t, f.d.SetVolume("123", 0))
	require.NoError(t, f.d.SetVolume("123", 100))

	require.NoError(t, f.d.SetVolume("123", 80))
	detail, err := f.d.SessionDetail("123")
	require.NoError(t, err)
	assert.Equal(t, 80, detail.Volume)

	last := f.pub.last(t)
	assert.Equal(t, "volume_changed", last["action"])
	assert.Equal(t, 80, last["volume"])
}

func TestLoopModeValidatedBeforeSessionTouched(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	s := f.join(t)

	err := f.d.SetLoopMode("123", "bogus")
	require.ErrorIs(t, err, domain.ErrUnknownLoopMode)
	sum, _ := s.Summary()
	assert.Equal(t, domain.LoopOff, sum.LoopMode)

	require.NoError(t, f.d.SetLoopMode("123", "queue"))
	sum, _ = s.Summary()
	assert.Equal(t, domain.LoopQueue, sum.LoopMode)
	assert.Equal(t, "queue", f.pub.last(t)["mode"])
}

func TestPlayAddsTracksAndNotifies(t *testing.T) {
	resolver := stubResolver{
		search: func(ctx context.Context, query string) ([]domain.Track, error) {
			return []domain.Track{{VideoID: "a"}, {VideoID: "b"}}, nil
		},
	}
	f := newFixture(t, resolver, time.Second)
	f.join(t)

	added, err := f.d.Play(context.Background(), "123", "two songs")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	last := f.pub.last(t)
	assert.Equal(t, "played", last["action"])
	assert.Equal(t, "123", last["guild_id"])
}

func TestPlayDisablesRadioFirst(t *testing.T) {
	resolver := stubResolver{
		search: func(ctx context.Context, query string) ([]domain.Track, error) {
			return []domain.Track{{VideoID: "x"}}, nil
		},
	}
	f := newFixture(t, resolver, time.Second)
	s := f.join(t, domain.Track{VideoID: "seed"})
	s.EnableRadio("seed", nil)

	_, err := f.d.Play(context.Background(), "123", "manual pick")
	require.NoError(t, err)
	assert.False(t, s.RadioMode())
}

func TestPlayEmptyQuery(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)
	_, err := f.d.Play(context.Background(), "123", "   ")
	require.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestPlayNoResults(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)
	_, err := f.d.Play(context.Background(), "123", "obscure")
	require.ErrorIs(t, err, core.ErrNoResults)
}

func TestPlayResolverErrorSurfacesVerbatim(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	resolver := stubResolver{
		search: func(ctx context.Context, query string) ([]domain.Track, error) {
			return nil, sentinel
		},
	}
	f := newFixture(t, resolver, time.Second)
	f.join(t)

	_, err := f.d.Play(context.Background(), "123", "anything")
	require.ErrorIs(t, err, sentinel)
}

func TestPlayTimesOutOnSlowResolver(t *testing.T) {
	resolver := stubResolver{
		search: func(ctx context.Context, query string) ([]domain.Track, error) {
			time.Sleep(200 * time.Millisecond)
			return []domain.Track{{VideoID: "late"}}, nil
		},
	}
	f := newFixture(t, resolver, 20*time.Millisecond)
	f.join(t)

	_, err := f.d.Play(context.Background(), "123", "slow")
	require.ErrorIs(t, err, core.ErrBridgeTimeout)
}

func TestToggleRadioRequiresCurrentTrack(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)
	_, err := f.d.ToggleRadio(context.Background(), "123")
	require.ErrorIs(t, err, core.ErrNothingPlaying)
}

func TestToggleRadioOnThenOff(t *testing.T) {
	resolver := stubResolver{
		related: func(ctx context.Context, videoID string) ([]domain.Track, error) {
			assert.Equal(t, "seed", videoID)
			return []domain.Track{{VideoID: "r1"}, {VideoID: "r2"}}, nil
		},
	}
	f := newFixture(t, resolver, time.Second)
	s := f.join(t, domain.Track{VideoID: "seed"})

	enabled, err := f.d.ToggleRadio(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.True(t, s.RadioMode())
	sum, _ := s.Summary()
	assert.Equal(t, 2, sum.QueueSize)
	assert.Equal(t, "radio_enabled", f.pub.last(t)["action"])

	enabled, err = f.d.ToggleRadio(context.Background(), "123")
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, "radio_disabled", f.pub.last(t)["action"])
}

func TestToggleCrossfade(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)

	on, err := f.d.ToggleCrossfade("123")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, true, f.pub.last(t)["enabled"])

	off, err := f.d.ToggleCrossfade("123")
	require.NoError(t, err)
	assert.False(t, off)
}

func TestSkipNothingToSkipPassesThrough(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)
	require.ErrorIs(t, f.d.Skip("123"), core.ErrNothingToSkip)
	assert.Equal(t, 0, f.pub.count(), "failed command must not notify")
}

func TestGuilds(t *testing.T) {
	f := newFixture(t, stubResolver{}, time.Second)
	f.join(t)

	guilds, err := f.d.Guilds()
	require.NoError(t, err)
	require.Len(t, guilds, 1)
	assert.Equal(t, "123", guilds[0].ID)
	assert.True(t, guilds[0].HasSession)
	assert.Equal(t, 5, guilds[0].MemberCount)
}
