// Package engine is the in-process playback engine. It owns all session
// state and the single loop goroutine that consumes the bridge; everything
// above it (dispatcher, broadcaster, transports) only holds handles.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

type Options struct {
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	// HeartbeatInterval drives the loop round-trip latency probe.
	HeartbeatInterval time.Duration
}

type Engine struct {
	mu       sync.RWMutex
	sessions map[domain.GuildID]*Session
	guilds   map[domain.GuildID]domain.Guild

	loop    *bridge.Bridge
	start   time.Time
	latency atomic.Int64 // nanoseconds
	online  atomic.Bool
	opts    Options
}

func New(loop *bridge.Bridge, opts Options) *Engine {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 5 * time.Minute
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 15 * time.Second
	}
	return &Engine{
		sessions: make(map[domain.GuildID]*Session),
		guilds:   make(map[domain.GuildID]domain.Guild),
		loop:     loop,
		start:    time.Now().UTC(),
		opts:     opts,
	}
}

// Run owns the loop goroutine plus the cleanup and heartbeat tickers.
// Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.online.Store(true)
	defer e.online.Store(false)

	go e.cleanupWorker(ctx)
	go e.heartbeat(ctx)

	log.Info().Str("module", "engine").Msg("loop started")
	e.loop.Run(ctx)
	log.Info().Str("module", "engine").Msg("loop stopped")
}

// RegisterGuild adds or updates a directory entry.
func (e *Engine) RegisterGuild(g domain.Guild) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guilds[g.ID] = g
}

// Join creates the session for a guild, or returns the existing one.
// A guild missing from the directory is core.ErrUnknownGuild.
func (e *Engine) Join(id domain.GuildID) (core.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[id]; ok {
		return s, nil
	}
	g, ok := e.guilds[id]
	if !ok {
		return nil, core.ErrUnknownGuild
	}
	s := newSession(g)
	e.sessions[id] = s
	log.Info().Str("module", "engine").Str("guild", id.String()).Msg("session created")
	return s, nil
}

// Leave destroys the session and reports whether one existed. The handle
// stays readable but reports itself closed, so an in-flight snapshot
// skips it.
func (e *Engine) Leave(id domain.GuildID) bool {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()
	if ok {
		s.close()
		log.Info().Str("module", "engine").Str("guild", id.String()).Msg("session destroyed")
	}
	return ok
}

func (e *Engine) Session(id domain.GuildID) (core.Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (e *Engine) Sessions() []core.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]core.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	return out
}

func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

func (e *Engine) Guilds() []domain.Guild {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Guild, 0, len(e.guilds))
	for _, g := range e.guilds {
		out = append(out, g)
	}
	return out
}

func (e *Engine) Guild(id domain.GuildID) (domain.Guild, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.guilds[id]
	return g, ok
}

func (e *Engine) StartTime() time.Time { return e.start }

func (e *Engine) Latency() time.Duration {
	return time.Duration(e.latency.Load())
}

func (e *Engine) Online() bool { return e.online.Load() }

// cleanupWorker reaps sessions that sat idle past the TTL.
func (e *Engine) cleanupWorker(ctx context.Context) {
	ticker := time.NewTicker(e.opts.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reapIdle(time.Now())
		}
	}
}

func (e *Engine) reapIdle(now time.Time) {
	e.mu.RLock()
	var stale []domain.GuildID
	for id, s := range e.sessions {
		if idle, ok := s.idleSince(now); ok && idle > e.opts.IdleTTL {
			stale = append(stale, id)
		}
	}
	e.mu.RUnlock()

	for _, id := range stale {
		log.Info().Str("module", "engine").Str("guild", id.String()).Msg("reaping idle session")
		e.Leave(id)
	}
}

// heartbeat measures loop round-trip time through the bridge; that figure
// is what /api/status reports as latency.
func (e *Engine) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(e.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := time.Now()
			_, err := e.loop.Submit(ctx, func(ctx context.Context) (any, error) {
				return nil, nil
			})
			if err != nil {
				log.Debug().Str("module", "engine").Err(err).Msg("heartbeat probe failed")
				continue
			}
			e.latency.Store(int64(time.Since(started)))
		}
	}
}
