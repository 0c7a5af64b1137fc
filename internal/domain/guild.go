// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strconv"
)

var ErrInvalidGuildID = errors.New("invalid guild_id")

// GuildID is the tenant key. Clients always send it as a decimal string
// (the raw integer overflows common JSON consumers), so parsing lives here.
type GuildID int64

func ParseGuildID(s string) (GuildID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidGuildID
	}
	return GuildID(id), nil
}

func (g GuildID) String() string {
	return strconv.FormatInt(int64(g), 10)
}

// Guild is a directory entry; membership data comes from the engine's
// directory, never from a session.
type Guild struct {
	ID          GuildID
	Name        string
	MemberCount int
}

// GuildInfo is the wire form of a directory entry.
type GuildInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasSession  bool   `json:"has_session"`
	MemberCount int    `json:"member_count"`
}
