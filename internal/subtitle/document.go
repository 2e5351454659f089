package subtitle

import (
	"sort"
	"strings"
)

// Meta carries per-format styling and positioning data preserved only for
// round-trip. Rules never interpret these fields.
type Meta struct {
	// ID is the wire-format cue identifier (WebVTT cue id, TTML xml:id).
	ID string `json:"id,omitempty"`
	// Settings holds the raw text after the timing line (WebVTT cue
	// settings, SRT positioning extensions).
	Settings string `json:"settings,omitempty"`
	// Attrs holds opaque attributes such as TTML style and region refs.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m Meta) Clone() Meta {
	out := Meta{ID: m.ID, Settings: m.Settings}
	if len(m.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(m.Attrs))
		for k, v := range m.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// Cue is one subtitle event. Start and End are absolute milliseconds from
// document start with End > Start.
type Cue struct {
	Index int      `json:"index"`
	Start int64    `json:"start"`
	End   int64    `json:"end"`
	Lines []string `json:"lines"`
	// Simultaneous marks a cue that intentionally overlaps its neighbour,
	// e.g. dual-speaker cues shown at the same time. Gap enforcement skips
	// pairs where both cues carry this flag.
	Simultaneous bool `json:"simultaneous,omitempty"`
	Meta         Meta `json:"meta,omitempty"`
}

// Duration returns the display duration in milliseconds, never negative.
func (c *Cue) Duration() int64 {
	if c.End <= c.Start {
		return 0
	}
	return c.End - c.Start
}

// Text joins the cue lines with newlines.
func (c *Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Clone returns a deep copy of the cue.
func (c *Cue) Clone() Cue {
	out := *c
	out.Lines = append([]string(nil), c.Lines...)
	out.Meta = c.Meta.Clone()
	return out
}

// Document is an ordered sequence of cues plus source metadata. Cues are
// sorted by start time; indexes are contiguous after any fix pass.
type Document struct {
	Cues         []Cue  `json:"cues"`
	SourceFormat string `json:"sourceFormat"`
	Encoding     string `json:"encoding"`
	// SkippedBlocks counts input blocks the decoder dropped as malformed.
	// Surfaced to callers as a warning, not a failure.
	SkippedBlocks int `json:"skippedBlocks,omitempty"`
}

// Clone returns a deep copy. Fix passes operate on clones so the caller's
// document is never mutated in place.
func (d *Document) Clone() *Document {
	out := &Document{
		SourceFormat:  d.SourceFormat,
		Encoding:      d.Encoding,
		SkippedBlocks: d.SkippedBlocks,
	}
	out.Cues = make([]Cue, len(d.Cues))
	for i := range d.Cues {
		out.Cues[i] = d.Cues[i].Clone()
	}
	return out
}

// SortByStart orders cues by start time, keeping the original relative
// order for equal starts.
func (d *Document) SortByStart() {
	sort.SliceStable(d.Cues, func(i, j int) bool {
		return d.Cues[i].Start < d.Cues[j].Start
	})
}

// Reindex renumbers cues 1..n in their current order.
func (d *Document) Reindex() {
	for i := range d.Cues {
		d.Cues[i].Index = i + 1
	}
}

// CueAt returns the position of the cue with the given index, or -1.
func (d *Document) CueAt(index int) int {
	for i := range d.Cues {
		if d.Cues[i].Index == index {
			return i
		}
	}
	return -1
}
