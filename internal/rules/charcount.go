package rules

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"subqc/internal/subtitle"
)

// Inline formatting markers excluded from character counting: HTML-style
// tags (<i>, <b>, VTT voice spans) and ASS-style override blocks.
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<[^>]*>`),
	regexp.MustCompile(`\{\\[^}]*\}`),
}

// StripMarkup removes cue-internal formatting markers, leaving the text a
// viewer actually reads. Punctuation stays.
func StripMarkup(line string) string {
	for _, pattern := range markupPatterns {
		line = pattern.ReplaceAllString(line, "")
	}
	return line
}

// VisibleLength counts the characters a viewer reads on one line. Text is
// NFC-normalized first so decomposed accents count as one character.
func VisibleLength(line string) int {
	return utf8.RuneCountInString(norm.NFC.String(StripMarkup(line)))
}

// CueCharCount counts readable characters across all lines of a cue, with
// one separator per line break, matching how reading speed is budgeted.
func CueCharCount(cue *subtitle.Cue) int {
	if len(cue.Lines) == 0 {
		return 0
	}
	total := len(cue.Lines) - 1
	for _, line := range cue.Lines {
		total += VisibleLength(line)
	}
	return total
}

// CueCPS computes the reading speed in characters per second. A cue with
// no duration reads infinitely fast; callers treat that as a violation.
func CueCPS(cue *subtitle.Cue) float64 {
	duration := cue.Duration()
	if duration <= 0 {
		return math.Inf(1)
	}
	return float64(CueCharCount(cue)) / (float64(duration) / 1000.0)
}

// IsDualSpeaker reports whether a cue's lines read as two speakers: at
// least two lines with at least one carrying the speaker dash marker.
func IsDualSpeaker(cue *subtitle.Cue, marker string) bool {
	if marker == "" || len(cue.Lines) < 2 {
		return false
	}
	for _, line := range cue.Lines {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			return true
		}
	}
	return false
}
