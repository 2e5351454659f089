package format

import (
	"errors"
	"reflect"
	"testing"

	"subqc/internal/services"
)

const sampleVTT = `WEBVTT

intro
00:00:01.000 --> 00:00:03.000 align:start position:10%
Hello there!

00:00:04.000 --> 00:00:06.000
Second cue
with two lines
`

func TestDecodeWebVTT(t *testing.T) {
	doc, err := Decode([]byte(sampleVTT), "webvtt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	first := doc.Cues[0]
	if first.Meta.ID != "intro" {
		t.Fatalf("expected cue id preserved, got %q", first.Meta.ID)
	}
	if first.Meta.Settings != "align:start position:10%" {
		t.Fatalf("expected cue settings preserved, got %q", first.Meta.Settings)
	}
	if first.Index != 1 || doc.Cues[1].Index != 2 {
		t.Fatalf("expected contiguous indexes, got %d, %d", first.Index, doc.Cues[1].Index)
	}
}

func TestDecodeWebVTTMissingHeaderIsFatal(t *testing.T) {
	raw := "00:00:01.000 --> 00:00:02.000\nNo header\n"
	_, err := Decode([]byte(raw), "webvtt")
	if err == nil {
		t.Fatal("expected parse error for missing WEBVTT header")
	}
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeWebVTTSkipsMetadataBlocks(t *testing.T) {
	raw := `WEBVTT

NOTE this is a comment

STYLE
::cue { color: white }

00:00:01.000 --> 00:00:02.000
Real cue
`
	doc, err := Decode([]byte(raw), "vtt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 1 || doc.SkippedBlocks != 0 {
		t.Fatalf("expected 1 cue and no skips, got %d cues, %d skipped", len(doc.Cues), doc.SkippedBlocks)
	}
}

func TestWebVTTRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleVTT), "webvtt")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(encoded, "webvtt")
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if !reflect.DeepEqual(doc, again) {
		t.Fatalf("round trip mismatch:\nfirst:  %+v\nsecond: %+v", doc, again)
	}
}

func TestDecodeWebVTTSortsByStart(t *testing.T) {
	input := `WEBVTT

00:00:05.000 --> 00:00:07.000
Senare replik.

00:00:01.000 --> 00:00:03.000
Tidigare replik.
`
	doc, err := decodeWebVTT([]byte(input))
	if err != nil {
		t.Fatalf("decodeWebVTT: %v", err)
	}
	if doc.Cues[0].Start != 1000 || doc.Cues[1].Start != 5000 {
		t.Fatalf("cues not in timeline order: %+v", doc.Cues)
	}
	if doc.Cues[0].Index != 1 || doc.Cues[1].Index != 2 {
		t.Fatalf("indexes = %d, %d", doc.Cues[0].Index, doc.Cues[1].Index)
	}
}
