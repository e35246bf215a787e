package model

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestTrackWithDefaults(t *testing.T) {
	got := Track{}.WithDefaults()
	if got.Title != UnknownTitle || got.Artist != UnknownArtist || got.Album != UnknownAlbum {
		t.Errorf("WithDefaults() = %+v, want placeholders", got)
	}

	keep := Track{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue"}.WithDefaults()
	if keep.Title != "So What" || keep.Artist != "Miles Davis" || keep.Album != "Kind of Blue" {
		t.Errorf("WithDefaults() overwrote populated fields: %+v", keep)
	}

	partial := Track{Title: "Intro"}.WithDefaults()
	if partial.Title != "Intro" || partial.Artist != UnknownArtist {
		t.Errorf("WithDefaults() partial = %+v", partial)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"next", CommandNext},
		{"NEXT", CommandNext},
		{" previous ", CommandPrevious},
		{"prev", CommandPrevious},
		{"play-pause", CommandPlayPause},
		{"playpause", CommandPlayPause},
		{"toggle", CommandPlayPause},
		{"play", CommandPlay},
		{"pause", CommandPause},
		{"stop", CommandStop},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.input)
		if err != nil {
			t.Errorf("ParseCommand(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseCommandUnknown(t *testing.T) {
	for _, in := range []string{"", "rewind", "volume-up"} {
		_, err := ParseCommand(in)
		if !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("ParseCommand(%q) error = %v, want ErrUnknownCommand", in, err)
		}
	}
}

func TestCommandsAreParseable(t *testing.T) {
	for _, c := range Commands {
		got, err := ParseCommand(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCommand(%q) = %q, %v", c, got, err)
		}
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventTrack)
	if e.Type != EventTrack {
		t.Errorf("Type = %q, want %q", e.Type, EventTrack)
	}
	if !crockfordBase32.MatchString(e.ID) {
		t.Errorf("ID = %q, not a ULID", e.ID)
	}
	if e.Time.IsZero() {
		t.Error("Time is zero")
	}
}

func TestTrackJSONDurationMilliseconds(t *testing.T) {
	tr := Track{Title: "Teardrop", Duration: 330500 * time.Millisecond}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `"duration_ms":330500`) {
		t.Errorf("json = %s, want duration_ms 330500", got)
	}
	if !strings.Contains(got, `"title":"Teardrop"`) {
		t.Errorf("json = %s, missing title", got)
	}
}
