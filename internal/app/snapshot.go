package app

import (
	"fmt"
	"time"

	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

// ReducedSession is the broadcast slice of a session: enough for a list
// view, no playback detail.
type ReducedSession struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	QueueSize int    `json:"queue_size"`
}

// ReducedStatus is what the periodic broadcaster publishes.
type ReducedStatus struct {
	Servers  int              `json:"servers"`
	Sessions int              `json:"sessions"`
	Data     []ReducedSession `json:"sessions_data"`
}

// Assemble builds a full snapshot. Pure read; a session or guild that
// vanishes between enumeration and read is skipped, never an error.
func Assemble(eng core.Engine) domain.Snapshot {
	data := make([]domain.SessionSummary, 0, eng.SessionCount())
	for _, s := range eng.Sessions() {
		if _, ok := eng.Guild(s.GuildID()); !ok {
			continue
		}
		sum, ok := s.Summary()
		if !ok {
			continue
		}
		data = append(data, sum)
	}
	return domain.Snapshot{
		Online:   eng.Online(),
		Servers:  len(eng.Guilds()),
		Sessions: eng.SessionCount(),
		Uptime:   formatUptime(time.Now().UTC().Sub(eng.StartTime())),
		Latency:  eng.Latency().Milliseconds(),
		Data:     data,
	}
}

// AssembleReduced builds the broadcast form.
func AssembleReduced(eng core.Engine) ReducedStatus {
	data := make([]ReducedSession, 0, eng.SessionCount())
	for _, s := range eng.Sessions() {
		if _, ok := eng.Guild(s.GuildID()); !ok {
			continue
		}
		sum, ok := s.Summary()
		if !ok {
			continue
		}
		data = append(data, ReducedSession{
			GuildID:   sum.GuildID,
			GuildName: sum.GuildName,
			QueueSize: sum.QueueSize,
		})
	}
	return ReducedStatus{
		Servers:  len(eng.Guilds()),
		Sessions: eng.SessionCount(),
		Data:     data,
	}
}

// formatUptime renders "3h 7m"; both timestamps are UTC so there is no
// aware/naive skew to compensate for.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dh %dm", total/3600, total%3600/60)
}
