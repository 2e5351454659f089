package subtitle

import "testing"

func TestParseSRTTimecode(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"00:00:01,000", 1000, true},
		{"01:02:03,456", 3723456, true},
		{"00:00:01.000", 1000, true},
		{"00:00:01", 0, false},
		{"00:61:00,000", 0, false},
		{"garbage", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseSRTTimecode(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseSRTTimecode(%q): unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseSRTTimecode(%q): expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseSRTTimecode(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatSRTTimecodeRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 999, 1000, 59999, 3723456, 35999999} {
		formatted := FormatSRTTimecode(ms)
		parsed, err := ParseSRTTimecode(formatted)
		if err != nil {
			t.Fatalf("round trip %d: %v", ms, err)
		}
		if parsed != ms {
			t.Fatalf("round trip %d -> %q -> %d", ms, formatted, parsed)
		}
	}
}

func TestParseVTTTimecodeShortForm(t *testing.T) {
	got, err := ParseVTTTimecode("02:03.400")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 123400 {
		t.Fatalf("expected 123400, got %d", got)
	}
}

func TestParseTTMLTime(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"00:00:05.500", 5500, true},
		{"00:01:00", 60000, true},
		{"12.5s", 12500, true},
		{"740ms", 740, true},
		{"2m", 120000, true},
		{"1h", 3600000, true},
		{"3.25", 3250, true},
		{"15f", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTTMLTime(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseTTMLTime(%q): unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseTTMLTime(%q): expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseTTMLTime(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := &Document{
		SourceFormat: "srt",
		Cues: []Cue{
			{Index: 1, Start: 0, End: 1000, Lines: []string{"hello"}, Meta: Meta{Attrs: map[string]string{"style": "s1"}}},
		},
	}
	clone := doc.Clone()
	clone.Cues[0].Lines[0] = "changed"
	clone.Cues[0].Meta.Attrs["style"] = "s2"
	if doc.Cues[0].Lines[0] != "hello" {
		t.Fatal("clone shares line storage with original")
	}
	if doc.Cues[0].Meta.Attrs["style"] != "s1" {
		t.Fatal("clone shares meta attrs with original")
	}
}

func TestReindexMakesContiguous(t *testing.T) {
	doc := &Document{Cues: []Cue{{Index: 3}, {Index: 7}, {Index: 9}}}
	doc.Reindex()
	for i, cue := range doc.Cues {
		if cue.Index != i+1 {
			t.Fatalf("cue %d has index %d", i, cue.Index)
		}
	}
}
