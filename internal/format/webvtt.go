package format

import (
	"strings"

	"subqc/internal/services"
	"subqc/internal/subtitle"
)

// decodeWebVTT parses a WebVTT document. The WEBVTT header is required;
// its absence is a fatal parse error with zero cues decoded. Cue settings
// after the timing line are captured opaquely, never validated.
func decodeWebVTT(data []byte) (*subtitle.Document, error) {
	content := normalizeInput(data)
	if !strings.HasPrefix(content, "WEBVTT") {
		return nil, services.Wrap(services.ErrParse, "webvtt", "decode", "missing WEBVTT header", nil)
	}
	doc := &subtitle.Document{SourceFormat: FormatWebVTT, Encoding: "utf-8"}

	blocks := splitBlocks(content)
	for i, block := range blocks {
		if i == 0 && strings.HasPrefix(block, "WEBVTT") {
			continue
		}
		if isVTTMetadataBlock(block) {
			continue
		}
		cue, ok := decodeVTTBlock(block)
		if !ok {
			doc.SkippedBlocks++
			continue
		}
		doc.Cues = append(doc.Cues, cue)
	}
	if len(doc.Cues) == 0 {
		return nil, services.Wrap(services.ErrParse, "webvtt", "decode", "no decodable cues", nil)
	}
	// VTT has no wire index; number cues in timeline order.
	doc.SortByStart()
	doc.Reindex()
	return doc, nil
}

func isVTTMetadataBlock(block string) bool {
	for _, prefix := range []string{"NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(block, prefix) {
			return true
		}
	}
	return false
}

func decodeVTTBlock(block string) (subtitle.Cue, bool) {
	var cue subtitle.Cue
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return cue, false
	}

	pos := 0
	if !strings.Contains(lines[0], "-->") {
		if len(lines) < 2 || !strings.Contains(lines[1], "-->") {
			return cue, false
		}
		cue.Meta.ID = strings.TrimSpace(lines[0])
		pos = 1
	}

	parts := strings.SplitN(lines[pos], "-->", 2)
	start, err := subtitle.ParseVTTTimecode(parts[0])
	if err != nil {
		return subtitle.Cue{}, false
	}
	rest := strings.TrimSpace(parts[1])
	endText := rest
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		endText = rest[:idx]
		cue.Meta.Settings = strings.TrimSpace(rest[idx:])
	}
	end, err := subtitle.ParseVTTTimecode(endText)
	if err != nil || end <= start {
		return subtitle.Cue{}, false
	}

	text := lines[pos+1:]
	if len(text) == 0 {
		return subtitle.Cue{}, false
	}
	cue.Start = start
	cue.End = end
	cue.Lines = append([]string(nil), text...)
	return cue, true
}

func encodeWebVTT(doc *subtitle.Document) []byte {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i := range doc.Cues {
		cue := &doc.Cues[i]
		if cue.Meta.ID != "" {
			b.WriteString(cue.Meta.ID)
			b.WriteByte('\n')
		}
		b.WriteString(subtitle.FormatVTTTimecode(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(subtitle.FormatVTTTimecode(cue.End))
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
