package format

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"subqc/internal/services"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
Hello there!

2
00:00:04,000 --> 00:00:06,000
Two lines here
- with a second one
`

func TestDecodeSRT(t *testing.T) {
	doc, err := Decode([]byte(sampleSRT), "srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.SourceFormat != FormatSRT {
		t.Fatalf("expected srt source format, got %q", doc.SourceFormat)
	}
	first := doc.Cues[0]
	if first.Index != 1 || first.Start != 1000 || first.End != 3000 {
		t.Fatalf("unexpected first cue: %+v", first)
	}
	second := doc.Cues[1]
	if len(second.Lines) != 2 {
		t.Fatalf("expected 2 lines on second cue, got %v", second.Lines)
	}
}

func TestDecodeSRTToleratesBOMAndCRLF(t *testing.T) {
	raw := "\xEF\xBB\xBF1\r\n00:00:01,000 --> 00:00:02,000\r\nHi\r\n"
	doc, err := Decode([]byte(raw), "srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 1 || doc.Cues[0].Lines[0] != "Hi" {
		t.Fatalf("unexpected document: %+v", doc.Cues)
	}
}

func TestDecodeSRTSkipsMalformedBlocks(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:02,000
Fine

2
garbage timestamp line
Broken

3
00:00:05,000 --> 00:00:06,000
Also fine
`
	doc, err := Decode([]byte(raw), "srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.SkippedBlocks != 1 {
		t.Fatalf("expected 1 skipped block, got %d", doc.SkippedBlocks)
	}
}

func TestDecodeSRTSkipsNonMonotonicIndex(t *testing.T) {
	raw := `5
00:00:01,000 --> 00:00:02,000
First

3
00:00:03,000 --> 00:00:04,000
Out of order

7
00:00:05,000 --> 00:00:06,000
Back on track
`
	doc, err := Decode([]byte(raw), "srt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.SkippedBlocks != 1 {
		t.Fatalf("expected 1 skipped block, got %d", doc.SkippedBlocks)
	}
	if doc.Cues[0].Index != 5 || doc.Cues[1].Index != 7 {
		t.Fatalf("unexpected indexes: %d, %d", doc.Cues[0].Index, doc.Cues[1].Index)
	}
}

func TestDecodeSRTZeroCuesIsFatal(t *testing.T) {
	_, err := Decode([]byte("garbage\nwith no --> cues, at all\n"), "srt")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestSRTRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleSRT), "srt")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(encoded, "srt")
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if !reflect.DeepEqual(doc, again) {
		t.Fatalf("round trip mismatch:\nfirst:  %+v\nsecond: %+v", doc, again)
	}
}

func TestDetectFormatRejectsPAC(t *testing.T) {
	_, err := DetectFormat([]byte{0x01, 0x02}, "pac")
	if !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "convert") {
		t.Fatalf("expected pre-convert instruction, got %q", err.Error())
	}
}

func TestDetectFormatSniffsContent(t *testing.T) {
	cases := []struct {
		data string
		want string
	}{
		{"WEBVTT\n\n00:00.000 --> 00:01.000\nHi\n", FormatWebVTT},
		{`<?xml version="1.0"?><tt xmlns="http://www.w3.org/ns/ttml"></tt>`, FormatTTML},
		{sampleSRT, FormatSRT},
	}
	for _, tc := range cases {
		got, err := DetectFormat([]byte(tc.data), "")
		if err != nil {
			t.Fatalf("detect %q: %v", tc.want, err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestDecodeSRTSortsByStart(t *testing.T) {
	input := `1
00:00:05,000 --> 00:00:07,000
Senare replik.

2
00:00:01,000 --> 00:00:03,000
Tidigare replik.
`
	doc, err := decodeSRT([]byte(input))
	if err != nil {
		t.Fatalf("decodeSRT: %v", err)
	}
	if doc.Cues[0].Start != 1000 || doc.Cues[1].Start != 5000 {
		t.Fatalf("cues not in timeline order: %+v", doc.Cues)
	}
	// Wire numbering survives; only the order changes.
	if doc.Cues[0].Index != 2 || doc.Cues[1].Index != 1 {
		t.Fatalf("indexes = %d, %d", doc.Cues[0].Index, doc.Cues[1].Index)
	}
}
