package model

import (
	"encoding/json"
	"time"
)

// Placeholders shown when the player omits a metadata field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Playback status values reported by org.bluez.MediaPlayer1.Status.
const (
	StatusPlaying     = "playing"
	StatusPaused      = "paused"
	StatusStopped     = "stopped"
	StatusForwardSeek = "forward-seek"
	StatusReverseSeek = "reverse-seek"
	StatusError       = "error"
)

// Track is the metadata of the item the remote device is currently playing.
type Track struct {
	Title          string        `json:"title"`
	Artist         string        `json:"artist"`
	Album          string        `json:"album"`
	Genre          string        `json:"genre,omitempty"`
	TrackNumber    uint32        `json:"track_number,omitempty"`
	NumberOfTracks uint32        `json:"number_of_tracks,omitempty"`
	Duration       time.Duration `json:"-"`
}

// WithDefaults returns a copy of t with empty title, artist and album
// replaced by their placeholders.
func (t Track) WithDefaults() Track {
	if t.Title == "" {
		t.Title = UnknownTitle
	}
	if t.Artist == "" {
		t.Artist = UnknownArtist
	}
	if t.Album == "" {
		t.Album = UnknownAlbum
	}
	return t
}

// MarshalJSON encodes Duration as whole milliseconds under duration_ms.
func (t Track) MarshalJSON() ([]byte, error) {
	type plain Track
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms,omitempty"`
	}{plain(t), t.Duration.Milliseconds()})
}

// NowPlaying is the latest known state of the attached player.
type NowPlaying struct {
	Player    string    `json:"player,omitempty"`
	Track     *Track    `json:"track,omitempty"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
