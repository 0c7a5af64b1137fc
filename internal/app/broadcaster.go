package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/core"
)

// Broadcaster pushes a reduced status to every observer on a fixed
// interval, regardless of command activity. Best-effort telemetry: a
// failed tick is counted and the loop moves on.
type Broadcaster struct {
	source   func() (any, error)
	pub      core.Publisher
	interval time.Duration

	ticks atomic.Uint64
	errs  atomic.Uint64
}

func NewBroadcaster(interval time.Duration, source func() (any, error), pub core.Publisher) *Broadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broadcaster{source: source, pub: pub, interval: interval}
}

// Run blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	log.Info().Str("module", "app.broadcaster").Dur("interval", b.interval).Msg("broadcaster started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.broadcaster").Uint64("ticks", b.ticks.Load()).Uint64("errors", b.errs.Load()).Msg("broadcaster stopped")
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *Broadcaster) tick() {
	b.ticks.Add(1)
	payload, err := b.source()
	if err != nil {
		b.errs.Add(1)
		log.Debug().Str("module", "app.broadcaster").Err(err).Msg("tick dropped")
		return
	}
	b.pub.Publish("status_update", payload)
}

// Ticks reports attempted ticks since start.
func (b *Broadcaster) Ticks() uint64 { return b.ticks.Load() }

// ErrorCount reports dropped ticks since start.
func (b *Broadcaster) ErrorCount() uint64 { return b.errs.Load() }
