package format

import (
	"strconv"
	"strings"

	"subqc/internal/services"
	"subqc/internal/subtitle"
)

// decodeSRT parses sequence-number/timestamp/text blocks. Malformed blocks
// (bad timestamp, non-monotonic index, end before start) are skipped and
// counted; decoding continues with the next block. Zero decodable cues is a
// fatal parse error. Cues are sorted by start time so the document holds
// its ordering invariant even when the file numbers cues out of timeline
// order.
func decodeSRT(data []byte) (*subtitle.Document, error) {
	doc := &subtitle.Document{SourceFormat: FormatSRT, Encoding: "utf-8"}
	lastIndex := 0
	for _, block := range splitBlocks(normalizeInput(data)) {
		cue, ok := decodeSRTBlock(block, lastIndex)
		if !ok {
			doc.SkippedBlocks++
			continue
		}
		lastIndex = cue.Index
		doc.Cues = append(doc.Cues, cue)
	}
	if len(doc.Cues) == 0 {
		return nil, services.Wrap(services.ErrParse, "srt", "decode", "no decodable cues", nil)
	}
	doc.SortByStart()
	return doc, nil
}

func decodeSRTBlock(block string, lastIndex int) (subtitle.Cue, bool) {
	var cue subtitle.Cue
	lines := nonEmptyLines(block)
	if len(lines) < 2 {
		return cue, false
	}

	pos := 0
	index := lastIndex + 1
	if parsed, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
		if parsed <= lastIndex {
			return cue, false
		}
		index = parsed
		pos = 1
	}
	if pos >= len(lines) || !strings.Contains(lines[pos], "-->") {
		return cue, false
	}

	start, end, settings, err := parseSRTTiming(lines[pos])
	if err != nil || end <= start {
		return cue, false
	}
	text := lines[pos+1:]
	if len(text) == 0 {
		return cue, false
	}

	cue = subtitle.Cue{
		Index: index,
		Start: start,
		End:   end,
		Lines: append([]string(nil), text...),
		Meta:  subtitle.Meta{Settings: settings},
	}
	return cue, true
}

func parseSRTTiming(line string) (int64, int64, string, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, "", services.Wrap(services.ErrParse, "srt", "timing", "missing arrow", nil)
	}
	start, err := subtitle.ParseSRTTimecode(parts[0])
	if err != nil {
		return 0, 0, "", err
	}
	rest := strings.TrimSpace(parts[1])
	endText := rest
	settings := ""
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		endText = rest[:idx]
		settings = strings.TrimSpace(rest[idx:])
	}
	end, err := subtitle.ParseSRTTimecode(endText)
	if err != nil {
		return 0, 0, "", err
	}
	return start, end, settings, nil
}

func encodeSRT(doc *subtitle.Document) []byte {
	var b strings.Builder
	for i := range doc.Cues {
		cue := &doc.Cues[i]
		b.WriteString(strconv.Itoa(cue.Index))
		b.WriteByte('\n')
		b.WriteString(subtitle.FormatSRTTimecode(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(subtitle.FormatSRTTimecode(cue.End))
		if cue.Meta.Settings != "" {
			b.WriteByte(' ')
			b.WriteString(cue.Meta.Settings)
		}
		b.WriteByte('\n')
		for _, line := range cue.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

func nonEmptyLines(block string) []string {
	raw := strings.Split(block, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
