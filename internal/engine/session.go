package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

// Session is the live playback state for one guild. The mutex makes the
// accessors and thin mutators safe from any goroutine; multi-step work
// (resolve-then-enqueue) still belongs on the engine loop so its steps
// are not interleaved with other commands.
type Session struct {
	mu sync.Mutex

	guildID   domain.GuildID
	guildName string

	queue     []domain.Track
	current   *domain.Track
	playing   bool
	paused    bool
	volume    float64
	loopMode  domain.LoopMode
	radio     bool
	radioSeed string
	crossfade bool
	bgPlaying bool
	state     domain.PlayerState

	createdAt  time.Time
	lastActive time.Time
	closed     bool
}

func newSession(guild domain.Guild) *Session {
	now := time.Now()
	return &Session{
		guildID:    guild.ID,
		guildName:  guild.Name,
		volume:     0.5,
		loopMode:   domain.LoopOff,
		state:      domain.StateIdle,
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) GuildID() domain.GuildID { return s.guildID }

func (s *Session) Summary() (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SessionSummary{}, false
	}
	return domain.SessionSummary{
		GuildID:     s.guildID.String(),
		GuildName:   s.guildName,
		CurrentSong: s.reportedCurrentLocked(),
		QueueSize:   len(s.queue),
		Playing:     s.playing,
		Paused:      s.paused,
		Volume:      int(s.volume*100 + 0.5),
		LoopMode:    s.loopMode,
		RadioMode:   s.radio,
		State:       s.state,
	}, true
}

func (s *Session) Detail(queueLimit int) domain.SessionDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queue)
	if queueLimit > 0 && n > queueLimit {
		n = queueLimit
	}
	items := make([]domain.QueueItem, 0, n)
	for i := 0; i < n; i++ {
		t := s.queue[i]
		items = append(items, domain.QueueItem{
			Position:   i + 1,
			Title:      t.Title,
			URL:        t.URL,
			Uploader:   t.Uploader,
			Duration:   t.Duration,
			Downloaded: t.Downloaded,
		})
	}

	return domain.SessionDetail{
		CurrentSong: s.reportedCurrentLocked(),
		Queue:       items,
		QueueSize:   len(s.queue),
		Volume:      int(s.volume*100 + 0.5),
		LoopMode:    s.loopMode,
		RadioMode:   s.radio,
		Playing:     s.playing,
		Paused:      s.paused,
		State:       s.state,
	}
}

// reportedCurrentLocked hides the current track while background audio is
// playing. Reporting rule only; playback keeps the track loaded.
func (s *Session) reportedCurrentLocked() *domain.Track {
	if s.current == nil || s.bgPlaying {
		return nil
	}
	c := *s.current
	return &c
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.playing || s.paused {
		return
	}
	s.paused = true
	s.playing = false
	s.state = domain.StatePaused
}

func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.paused {
		return
	}
	s.paused = false
	s.playing = true
	s.state = domain.StatePlaying
}

// Skip advances to the next track honoring the loop mode: single replays
// the current track, queue cycles it to the tail.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.current == nil && !s.bgPlaying {
		return core.ErrNothingToSkip
	}
	if s.bgPlaying && s.current == nil {
		s.bgPlaying = false
		s.advanceLocked()
		return nil
	}
	switch s.loopMode {
	case domain.LoopSingle:
		// same track restarts; nothing to move
	case domain.LoopQueue:
		s.queue = append(s.queue, *s.current)
		s.advanceLocked()
	default:
		s.advanceLocked()
	}
	return nil
}

// advanceLocked pops the queue head into current, or goes idle.
func (s *Session) advanceLocked() {
	if len(s.queue) == 0 {
		s.current = nil
		s.playing = false
		s.paused = false
		s.state = domain.StateIdle
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.current = &next
	s.playing = true
	s.paused = false
	s.state = domain.StatePlaying
}

func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.queue = nil
	s.current = nil
	s.playing = false
	s.paused = false
	s.bgPlaying = false
	s.state = domain.StateStopped
}

func (s *Session) SetVolume(frac float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.volume = frac
}

func (s *Session) SetLoopMode(mode domain.LoopMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.loopMode = mode
}

func (s *Session) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	rand.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
}

func (s *Session) ClearQueue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	n := len(s.queue)
	s.queue = nil
	return n
}

func (s *Session) ToggleCrossfade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.crossfade = !s.crossfade
	return s.crossfade
}

func (s *Session) RadioMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.radio
}

func (s *Session) DisableRadio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.radio {
		return
	}
	s.radio = false
	s.radioSeed = ""
	log.Info().Str("module", "engine.session").Str("guild", s.guildID.String()).Msg("radio disabled")
}

func (s *Session) CurrentSeed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.bgPlaying {
		return "", false
	}
	return s.current.VideoID, true
}

func (s *Session) AddTracks(tracks []domain.Track) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.queue = append(s.queue, tracks...)
	if s.current == nil && !s.paused {
		s.advanceLocked()
	}
	log.Info().Str("module", "engine.session").Str("guild", s.guildID.String()).Int("added", len(tracks)).Msg("tracks queued")
	return len(tracks)
}

func (s *Session) EnableRadio(seed string, related []domain.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.radio = true
	s.radioSeed = seed
	s.queue = append(s.queue, related...)
	log.Info().Str("module", "engine.session").Str("guild", s.guildID.String()).Str("seed", seed).Int("seeded", len(related)).Msg("radio enabled")
}

// SetBackground flags the currently playing item as background audio.
func (s *Session) SetBackground(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bgPlaying = on
}

func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return 0, false
	}
	return now.Sub(s.lastActive), true
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
