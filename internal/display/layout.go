package display

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/seantiz/spotipi/internal/model"
)

// replacement stands in for characters the display cannot show.
const replacement = '?'

var asciiSubstitutes = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'Æ': "AE",
	'œ': "oe",
	'Œ': "OE",
	'ø': "o",
	'Ø': "O",
	'đ': "d",
	'Đ': "D",
	'ł': "l",
	'Ł': "L",
	'‘': "'",
	'’': "'",
	'“': "\"",
	'”': "\"",
	'–': "-",
	'—': "-",
	'…': "...",
}

var statusGlyphs = map[string]string{
	model.StatusPlaying:     ">",
	model.StatusPaused:      "||",
	model.StatusStopped:     "[]",
	model.StatusForwardSeek: ">>",
	model.StatusReverseSeek: "<<",
	model.StatusError:       "!",
}

// ASCII folds s into printable ASCII: diacritics are stripped, common
// typographic characters are substituted, whitespace becomes a single space
// and anything else becomes '?'.
func ASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			if sub, ok := asciiSubstitutes[r]; ok {
				b.WriteString(sub)
			} else {
				b.WriteRune(replacement)
			}
		}
	}
	return b.String()
}

// Fit folds s to ASCII and truncates it to cols characters.
func Fit(s string, cols int) string {
	s = ASCII(s)
	if cols <= 0 {
		return ""
	}
	if len(s) > cols {
		return s[:cols]
	}
	return s
}

// Pad right-pads s with spaces to exactly cols characters, truncating longer
// input. s must already be ASCII.
func Pad(s string, cols int) string {
	if len(s) >= cols {
		return s[:cols]
	}
	return s + strings.Repeat(" ", cols-len(s))
}

// NowPlayingLines lays out a track for a cols x rows display: title, artist,
// album and playback status, in that order, as far as rows allow.
func NowPlayingLines(t model.Track, status string, cols, rows int) []string {
	t = t.WithDefaults()
	candidates := []string{t.Title, t.Artist, t.Album, statusLine(t, status)}
	if rows < len(candidates) {
		candidates = candidates[:max(rows, 0)]
	}

	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = Fit(c, cols)
	}
	return lines
}

func statusLine(t model.Track, status string) string {
	var parts []string
	if status != "" {
		if glyph, ok := statusGlyphs[status]; ok {
			parts = append(parts, glyph)
		}
		parts = append(parts, status)
	}
	if t.TrackNumber > 0 {
		n := strconv.FormatUint(uint64(t.TrackNumber), 10)
		if t.NumberOfTracks > 0 {
			n += "/" + strconv.FormatUint(uint64(t.NumberOfTracks), 10)
		}
		parts = append(parts, n)
	}
	return strings.Join(parts, " ")
}

// MessageLines word-wraps text into at most rows lines of at most cols
// characters. Explicit newlines start a new line; words longer than a line
// are split; text that does not fit is dropped.
func MessageLines(text string, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrap(ASCII(para), cols)...)
		if len(lines) >= rows {
			return lines[:rows]
		}
	}
	return lines
}

func wrap(s string, cols int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur string
	for _, w := range words {
		for len(w) > cols {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			lines = append(lines, w[:cols])
			w = w[cols:]
		}
		switch {
		case w == "":
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= cols:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
