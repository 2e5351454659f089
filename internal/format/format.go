package format

import (
	"bytes"
	"strings"

	"subqc/internal/services"
	"subqc/internal/subtitle"
)

// Format identifiers accepted as hints and recorded on decoded documents.
const (
	FormatSRT    = "srt"
	FormatWebVTT = "webvtt"
	FormatTTML   = "ttml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses subtitle bytes into the canonical document. The hint, when
// non-empty, forces a format; otherwise the content is sniffed. Unsupported
// formats (PAC and other playout binaries) are rejected outright with an
// instruction to pre-convert.
func Decode(data []byte, hint string) (*subtitle.Document, error) {
	name, err := DetectFormat(data, hint)
	if err != nil {
		return nil, err
	}
	switch name {
	case FormatSRT:
		return decodeSRT(data)
	case FormatWebVTT:
		return decodeWebVTT(data)
	case FormatTTML:
		return decodeTTML(data)
	}
	return nil, services.Wrap(services.ErrUnsupportedFormat, "format", "decode", "format "+name+" has no adapter", nil)
}

// Encode renders a document back into its source format.
func Encode(doc *subtitle.Document) ([]byte, error) {
	if doc == nil {
		return nil, services.Wrap(services.ErrUnsupportedFormat, "format", "encode", "nil document", nil)
	}
	switch doc.SourceFormat {
	case FormatSRT:
		return encodeSRT(doc), nil
	case FormatWebVTT:
		return encodeWebVTT(doc), nil
	case FormatTTML:
		return encodeTTML(doc), nil
	}
	return nil, services.Wrap(services.ErrUnsupportedFormat, "format", "encode", "format "+doc.SourceFormat+" has no adapter", nil)
}

// DetectFormat resolves the format name from a hint or by sniffing content.
func DetectFormat(data []byte, hint string) (string, error) {
	switch normalizeHint(hint) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatWebVTT:
		return FormatWebVTT, nil
	case FormatTTML:
		return FormatTTML, nil
	case "pac":
		return "", services.Wrap(services.ErrUnsupportedFormat, "format", "detect",
			"PAC is a playout format; convert to SRT, WebVTT, or TTML before QC", nil)
	case "":
		// fall through to sniffing
	default:
		return "", services.Wrap(services.ErrUnsupportedFormat, "format", "detect",
			"unrecognized format hint "+hint+"; convert to SRT, WebVTT, or TTML before QC", nil)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimPrefix(head, utf8BOM)
	switch {
	case bytes.HasPrefix(head, []byte("WEBVTT")):
		return FormatWebVTT, nil
	case bytes.Contains(head, []byte("<tt")):
		return FormatTTML, nil
	case bytes.Contains(data, []byte("-->")) && bytes.Contains(data, []byte(",")):
		return FormatSRT, nil
	}
	return "", services.Wrap(services.ErrUnsupportedFormat, "format", "detect",
		"could not identify subtitle format; convert to SRT, WebVTT, or TTML before QC", nil)
}

func normalizeHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	switch hint {
	case "vtt":
		return FormatWebVTT
	case "imsc", "xml", "dfxp":
		return FormatTTML
	}
	return hint
}

// normalizeInput strips the BOM and normalizes line endings.
func normalizeInput(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	raw := strings.Split(trimmed, "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, block := range raw {
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}
