// Package app holds the command dispatcher, the snapshot assembler and the
// periodic broadcaster: the part of the server that translates transport
// requests into engine operations.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/bridge"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

// queueHeadLimit caps how much queue detail a session view carries.
const queueHeadLimit = 20

// Dispatcher validates inbound commands and executes them against the
// engine, directly for thin mutators and through the bridge for loop-bound
// work. All collaborators are injected; there is no package-level engine.
type Dispatcher struct {
	mu   sync.RWMutex
	eng  core.Engine
	loop *bridge.Bridge

	resolver core.TrackResolver
	pub      core.Publisher
}

func NewDispatcher(resolver core.TrackResolver, pub core.Publisher) *Dispatcher {
	return &Dispatcher{resolver: resolver, pub: pub}
}

// Attach wires the engine and its bridge. Commands before Attach fail with
// ErrEngineNotAttached.
func (d *Dispatcher) Attach(eng core.Engine, loop *bridge.Bridge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng = eng
	d.loop = loop
	log.Info().Str("module", "app.dispatcher").Msg("engine attached")
}

func (d *Dispatcher) engine() (core.Engine, *bridge.Bridge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.eng == nil {
		return nil, nil, core.ErrEngineNotAttached
	}
	return d.eng, d.loop, nil
}

// session resolves a guild-id string to a live session. Parse failure is a
// client error, a registry miss is ErrNoActiveSession; both happen before
// any state is touched.
func (d *Dispatcher) session(guildID string) (core.Session, domain.GuildID, error) {
	eng, _, err := d.engine()
	if err != nil {
		return nil, 0, err
	}
	id, err := domain.ParseGuildID(guildID)
	if err != nil {
		return nil, 0, err
	}
	sess, ok := eng.Session(id)
	if !ok {
		return nil, id, core.ErrNoActiveSession
	}
	return sess, id, nil
}

func (d *Dispatcher) Status() (domain.Snapshot, error) {
	eng, _, err := d.engine()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return Assemble(eng), nil
}

// ReducedStatus is the broadcast form: no uptime, latency or per-session
// playback detail.
func (d *Dispatcher) ReducedStatus() (any, error) {
	eng, _, err := d.engine()
	if err != nil {
		return nil, err
	}
	return AssembleReduced(eng), nil
}

func (d *Dispatcher) Guilds() ([]domain.GuildInfo, error) {
	eng, _, err := d.engine()
	if err != nil {
		return nil, err
	}
	guilds := eng.Guilds()
	out := make([]domain.GuildInfo, 0, len(guilds))
	for _, g := range guilds {
		_, has := eng.Session(g.ID)
		out = append(out, domain.GuildInfo{
			ID:          g.ID.String(),
			Name:        g.Name,
			HasSession:  has,
			MemberCount: g.MemberCount,
		})
	}
	return out, nil
}

func (d *Dispatcher) SessionDetail(guildID string) (domain.SessionDetail, error) {
	sess, _, err := d.session(guildID)
	if err != nil {
		return domain.SessionDetail{}, err
	}
	return sess.Detail(queueHeadLimit), nil
}

// Join creates the session for a guild; joining an already joined guild
// succeeds. This is the entry point the strict play policy points at.
func (d *Dispatcher) Join(guildID string) error {
	eng, _, err := d.engine()
	if err != nil {
		return err
	}
	id, err := domain.ParseGuildID(guildID)
	if err != nil {
		return err
	}
	if _, err := eng.Join(id); err != nil {
		return err
	}
	d.notify(id, "joined", nil)
	return nil
}

// Leave destroys the guild's session.
func (d *Dispatcher) Leave(guildID string) error {
	eng, _, err := d.engine()
	if err != nil {
		return err
	}
	id, err := domain.ParseGuildID(guildID)
	if err != nil {
		return err
	}
	if !eng.Leave(id) {
		return core.ErrNoActiveSession
	}
	d.notify(id, "left", nil)
	return nil
}

// Play resolves the query and appends the results to the guild's queue.
// Resolution is network I/O followed by a queue mutation, so the whole
// step runs on the engine loop. Strict policy: no session, no play.
func (d *Dispatcher) Play(ctx context.Context, guildID, query string) (int, error) {
	if strings.TrimSpace(query) == "" {
		return 0, core.ErrEmptyQuery
	}
	sess, id, err := d.session(guildID)
	if err != nil {
		return 0, err
	}
	_, loop, err := d.engine()
	if err != nil {
		return 0, err
	}

	added, err := bridge.Call(ctx, loop, func(ctx context.Context) (int, error) {
		tracks, err := d.resolver.Search(ctx, query)
		if err != nil {
			return 0, err
		}
		if len(tracks) == 0 {
			return 0, core.ErrNoResults
		}
		// Manual enqueue takes over from radio.
		if sess.RadioMode() {
			sess.DisableRadio()
		}
		return sess.AddTracks(tracks), nil
	})
	if err != nil {
		return 0, err
	}
	d.notify(id, "played", nil)
	return added, nil
}

func (d *Dispatcher) Pause(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	sess.Pause()
	d.notify(id, "paused", nil)
	return nil
}

func (d *Dispatcher) Resume(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	sess.Resume()
	d.notify(id, "resumed", nil)
	return nil
}

func (d *Dispatcher) Skip(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	if err := sess.Skip(); err != nil {
		return err
	}
	d.notify(id, "skipped", nil)
	return nil
}

func (d *Dispatcher) Stop(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	sess.Stop()
	d.notify(id, "stopped", nil)
	return nil
}

// SetVolume validates the 0-100 range before the session is touched;
// the engine stores volume as a 0.0-1.0 fraction.
func (d *Dispatcher) SetVolume(guildID string, volume int) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	if volume < 0 || volume > 100 {
		return core.ErrVolumeOutOfRange
	}
	sess.SetVolume(float64(volume) / 100)
	d.notify(id, "volume_changed", map[string]any{"volume": volume})
	return nil
}

func (d *Dispatcher) SetLoopMode(guildID, mode string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	parsed, err := domain.ParseLoopMode(mode)
	if err != nil {
		return err
	}
	sess.SetLoopMode(parsed)
	d.notify(id, "loop_changed", map[string]any{"mode": mode})
	return nil
}

func (d *Dispatcher) Shuffle(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	sess.Shuffle()
	d.notify(id, "shuffled", nil)
	return nil
}

func (d *Dispatcher) ClearQueue(guildID string) error {
	sess, id, err := d.session(guildID)
	if err != nil {
		return err
	}
	sess.ClearQueue()
	d.notify(id, "cleared", nil)
	return nil
}

// ToggleRadio flips radio mode. Disabling is a thin mutator; enabling
// resolves related tracks from the current seed on the engine loop.
// Returns whether radio is now enabled.
func (d *Dispatcher) ToggleRadio(ctx context.Context, guildID string) (bool, error) {
	sess, id, err := d.session(guildID)
	if err != nil {
		return false, err
	}

	if sess.RadioMode() {
		sess.DisableRadio()
		d.notify(id, "radio_disabled", nil)
		return false, nil
	}

	seed, ok := sess.CurrentSeed()
	if !ok {
		return false, core.ErrNothingPlaying
	}
	_, loop, err := d.engine()
	if err != nil {
		return false, err
	}
	_, err = loop.Submit(ctx, func(ctx context.Context) (any, error) {
		related, err := d.resolver.Related(ctx, seed)
		if err != nil {
			return nil, err
		}
		sess.EnableRadio(seed, related)
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	d.notify(id, "radio_enabled", nil)
	return true, nil
}

// ToggleCrossfade flips the flag and returns the new state.
func (d *Dispatcher) ToggleCrossfade(guildID string) (bool, error) {
	sess, id, err := d.session(guildID)
	if err != nil {
		return false, err
	}
	enabled := sess.ToggleCrossfade()
	d.notify(id, "crossfade_toggled", map[string]any{"enabled": enabled})
	return enabled, nil
}

// notify publishes the post-command event. Advisory only; observers
// reconstruct full truth from the snapshot path.
func (d *Dispatcher) notify(id domain.GuildID, action string, extra map[string]any) {
	if d.pub == nil {
		return
	}
	payload := map[string]any{
		"guild_id": id.String(),
		"action":   action,
	}
	for k, v := range extra {
		payload[k] = v
	}
	d.pub.Publish("status_update", payload)
}
