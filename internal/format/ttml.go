package format

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"subqc/internal/services"
	"subqc/internal/subtitle"
)

// decodeTTML walks the markup and collects <p> elements carrying timing
// attributes. Clock and offset time expressions are normalized to absolute
// milliseconds; style and region references are preserved opaquely.
func decodeTTML(data []byte) (*subtitle.Document, error) {
	doc := &subtitle.Document{SourceFormat: FormatTTML, Encoding: "utf-8"}
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(doc.Cues) == 0 {
				return nil, services.Wrap(services.ErrParse, "ttml", "decode", "malformed markup", err)
			}
			// Keep what decoded; count the broken tail as one skipped block.
			doc.SkippedBlocks++
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "p" {
			continue
		}
		cue, ok := decodeTTMLParagraph(dec, start)
		if !ok {
			doc.SkippedBlocks++
			continue
		}
		doc.Cues = append(doc.Cues, cue)
	}
	if len(doc.Cues) == 0 {
		return nil, services.Wrap(services.ErrParse, "ttml", "decode", "no decodable cues", nil)
	}
	doc.SortByStart()
	for i := range doc.Cues {
		doc.Cues[i].Index = i + 1
	}
	return doc, nil
}

func decodeTTMLParagraph(dec *xml.Decoder, start xml.StartElement) (subtitle.Cue, bool) {
	var cue subtitle.Cue
	var beginRaw, endRaw, durRaw string
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "begin":
			beginRaw = attr.Value
		case "end":
			endRaw = attr.Value
		case "dur":
			durRaw = attr.Value
		case "id":
			cue.Meta.ID = attr.Value
		default:
			if cue.Meta.Attrs == nil {
				cue.Meta.Attrs = make(map[string]string)
			}
			cue.Meta.Attrs[attr.Name.Local] = attr.Value
		}
	}

	lines, ok := collectParagraphText(dec, start.Name)
	if !ok || len(lines) == 0 {
		return subtitle.Cue{}, false
	}

	if beginRaw == "" {
		return subtitle.Cue{}, false
	}
	begin, err := subtitle.ParseTTMLTime(beginRaw)
	if err != nil {
		return subtitle.Cue{}, false
	}
	var end int64
	switch {
	case endRaw != "":
		end, err = subtitle.ParseTTMLTime(endRaw)
	case durRaw != "":
		var dur int64
		dur, err = subtitle.ParseTTMLTime(durRaw)
		end = begin + dur
	default:
		return subtitle.Cue{}, false
	}
	if err != nil || end <= begin {
		return subtitle.Cue{}, false
	}

	cue.Start = begin
	cue.End = end
	cue.Lines = lines
	return cue, true
}

// collectParagraphText flattens the paragraph content into text lines,
// treating <br/> as a line break. Inline spans contribute their character
// data; their own styling is not tracked.
func collectParagraphText(dec *xml.Decoder, name xml.Name) ([]string, bool) {
	var lines []string
	var current strings.Builder
	depth := 0
	flush := func() {
		line := collapseWhitespace(current.String())
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		switch t := tok.(type) {
		case xml.CharData:
			current.Write(t)
		case xml.StartElement:
			if t.Name.Local == "br" {
				flush()
			}
			depth++
		case xml.EndElement:
			if depth == 0 && t.Name == name {
				flush()
				return lines, true
			}
			if depth > 0 {
				depth--
			}
		}
	}
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func encodeTTML(doc *subtitle.Document) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<tt xmlns="http://www.w3.org/ns/ttml">` + "\n")
	b.WriteString("  <body>\n    <div>\n")
	for i := range doc.Cues {
		cue := &doc.Cues[i]
		b.WriteString("      <p")
		if cue.Meta.ID != "" {
			writeAttr(&b, "xml:id", cue.Meta.ID)
		}
		writeAttr(&b, "begin", subtitle.FormatTTMLTime(cue.Start))
		writeAttr(&b, "end", subtitle.FormatTTMLTime(cue.End))
		for _, key := range sortedKeys(cue.Meta.Attrs) {
			writeAttr(&b, key, cue.Meta.Attrs[key])
		}
		b.WriteString(">")
		for j, line := range cue.Lines {
			if j > 0 {
				b.WriteString("<br/>")
			}
			_ = xml.EscapeText(&b, []byte(line))
		}
		b.WriteString("</p>\n")
	}
	b.WriteString("    </div>\n  </body>\n</tt>\n")
	return []byte(b.String())
}

func writeAttr(b *strings.Builder, key, value string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}

func sortedKeys(attrs map[string]string) []string {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
