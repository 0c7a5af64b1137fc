package domain

import "errors"

var ErrUnknownLoopMode = errors.New("unknown loop mode")

// LoopMode controls what happens when the current track ends.
type LoopMode string

const (
	LoopOff    LoopMode = "off"
	LoopSingle LoopMode = "single"
	LoopQueue  LoopMode = "queue"
)

func ParseLoopMode(s string) (LoopMode, error) {
	switch LoopMode(s) {
	case LoopOff, LoopSingle, LoopQueue:
		return LoopMode(s), nil
	}
	return "", ErrUnknownLoopMode
}

// PlayerState is the session lifecycle as reported to observers.
type PlayerState string

const (
	StateIdle    PlayerState = "idle"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
	StateStopped PlayerState = "stopped"
)

// Track is an immutable description of a resolved audio source.
type Track struct {
	VideoID    string `json:"-"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Uploader   string `json:"uploader"`
	Duration   int64  `json:"duration"`
	Thumbnail  string `json:"thumbnail"`
	Downloaded bool   `json:"-"`
}

// QueueItem is a Track plus its 1-based queue position.
type QueueItem struct {
	Position   int    `json:"position"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Uploader   string `json:"uploader"`
	Duration   int64  `json:"duration"`
	Downloaded bool   `json:"is_downloaded"`
}
