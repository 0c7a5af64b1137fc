package domain

// SessionSummary is the per-guild slice of a Snapshot. CurrentSong is nil
// while background audio is playing even if a foreground track is loaded;
// that suppression is a reporting rule, not a playback rule.
type SessionSummary struct {
	GuildID     string      `json:"guild_id"`
	GuildName   string      `json:"guild_name"`
	CurrentSong *Track      `json:"current_song"`
	QueueSize   int         `json:"queue_size"`
	Playing     bool        `json:"is_playing"`
	Paused      bool        `json:"is_paused"`
	Volume      int         `json:"volume"`
	LoopMode    LoopMode    `json:"loop_mode"`
	RadioMode   bool        `json:"radio_mode"`
	State       PlayerState `json:"state"`
}

// Snapshot is an assembled read of global plus per-session state.
// Built fresh for every request or broadcast tick, never mutated after.
type Snapshot struct {
	Online   bool             `json:"online"`
	Servers  int              `json:"servers"`
	Sessions int              `json:"sessions"`
	Uptime   string           `json:"uptime"`
	Latency  int64            `json:"latency"`
	Data     []SessionSummary `json:"sessions_data"`
}

// SessionDetail is the full single-session view, queue head included.
type SessionDetail struct {
	CurrentSong *Track      `json:"current_song"`
	Queue       []QueueItem `json:"queue"`
	QueueSize   int         `json:"queue_size"`
	Volume      int         `json:"volume"`
	LoopMode    LoopMode    `json:"loop_mode"`
	RadioMode   bool        `json:"radio_mode"`
	Playing     bool        `json:"is_playing"`
	Paused      bool        `json:"is_paused"`
	State       PlayerState `json:"state"`
}
