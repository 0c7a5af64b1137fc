package core

import (
	"context"
	"time"

	"github.com/dkeye/Maestro/internal/domain"
)

// Session is a live playback session handle owned by the engine. Summary,
// Detail and the thin mutators are documented safe for cross-goroutine use;
// queue-extending operations (AddTracks, EnableRadio) must run on the
// engine loop and are reached through the bridge only.
type Session interface {
	GuildID() domain.GuildID

	// Summary reports ok=false once the session has been closed, so a
	// snapshot in progress can skip it instead of failing.
	Summary() (domain.SessionSummary, bool)
	Detail(queueLimit int) domain.SessionDetail

	// Thin mutators. Pause/Resume/ClearQueue are no-ops when there is
	// nothing to do and still report success.
	Pause()
	Resume()
	Skip() error
	Stop()
	SetVolume(frac float64)
	SetLoopMode(mode domain.LoopMode)
	Shuffle()
	ClearQueue() int
	ToggleCrossfade() bool

	RadioMode() bool
	DisableRadio()
	// CurrentSeed returns the foreground track's video id, ok=false when
	// nothing foreground is playing.
	CurrentSeed() (string, bool)

	// Loop-bound operations; callers submit these via the bridge.
	AddTracks(tracks []domain.Track) int
	EnableRadio(seed string, related []domain.Track)
}

// SessionRegistry is the keyed session lookup. A miss is an expected
// condition, not an error.
type SessionRegistry interface {
	Session(id domain.GuildID) (Session, bool)
	Sessions() []Session
	SessionCount() int
}

// GuildDirectory lists the tenants the engine is attached to.
type GuildDirectory interface {
	Guilds() []domain.Guild
	Guild(id domain.GuildID) (domain.Guild, bool)
}

// SessionAdmin creates and destroys sessions. The playback commands never
// reach lifetime: only the explicit join/leave surface goes through here.
type SessionAdmin interface {
	// Join creates the session for a known guild; joining twice returns
	// the existing session. An unregistered guild is ErrUnknownGuild.
	Join(id domain.GuildID) (Session, error)
	// Leave destroys the session, reporting whether one existed.
	Leave(id domain.GuildID) bool
}

// Engine is the boundary to the playback engine. Idle-session reaping
// stays engine policy; explicit lifetime goes through SessionAdmin.
type Engine interface {
	SessionRegistry
	SessionAdmin
	GuildDirectory
	StartTime() time.Time
	Latency() time.Duration
	Online() bool
}

// TrackResolver turns a query or a seed video into playable tracks.
// Implementations do network I/O; call only from a bridge task.
type TrackResolver interface {
	Search(ctx context.Context, query string) ([]domain.Track, error)
	Related(ctx context.Context, videoID string) ([]domain.Track, error)
}

// Publisher fans an event out to all connected observers. Fire-and-forget:
// no acknowledgement, no retry, slow observers may be dropped.
type Publisher interface {
	Publish(event string, payload any)
}
