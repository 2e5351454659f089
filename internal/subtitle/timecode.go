package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSRTTimecode parses HH:MM:SS,mmm into milliseconds. A period is
// tolerated in place of the comma because broken encoders emit it.
func ParseSRTTimecode(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timecode")
	}
	normalized := strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(normalized, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid srt timecode %q", value)
	}
	base, err := parseClock(parts[0], value)
	if err != nil {
		return 0, err
	}
	millis, err := strconv.Atoi(parts[1])
	if err != nil || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("invalid srt timecode %q", value)
	}
	return base + int64(millis), nil
}

// FormatSRTTimecode renders milliseconds as HH:MM:SS,mmm.
func FormatSRTTimecode(ms int64) string {
	h, m, s, millis := splitClock(ms)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

// ParseVTTTimecode parses HH:MM:SS.mmm or MM:SS.mmm into milliseconds.
func ParseVTTTimecode(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timecode")
	}
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid vtt timecode %q", value)
	}
	millis, err := strconv.Atoi(parts[1])
	if err != nil || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("invalid vtt timecode %q", value)
	}
	fields := strings.Split(parts[0], ":")
	if len(fields) == 2 {
		fields = append([]string{"0"}, fields...)
	}
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid vtt timecode %q", value)
	}
	base, err := parseClock(strings.Join(fields, ":"), value)
	if err != nil {
		return 0, err
	}
	return base + int64(millis), nil
}

// FormatVTTTimecode renders milliseconds as HH:MM:SS.mmm.
func FormatVTTTimecode(ms int64) string {
	h, m, s, millis := splitClock(ms)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, millis)
}

// ParseTTMLTime parses a TTML time expression into absolute milliseconds.
// Supported forms: clock times (HH:MM:SS, HH:MM:SS.mmm) and offset times
// with h, m, s, or ms metrics (e.g. "12.5s", "740ms"). Frame-based
// expressions are rejected; they need a frame rate this engine does not
// track.
func ParseTTMLTime(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty time expression")
	}
	if strings.Contains(value, ":") {
		sec := value
		var fraction int64
		if dot := strings.IndexByte(value, '.'); dot >= 0 {
			sec = value[:dot]
			frac, err := parseFraction(value[dot+1:])
			if err != nil {
				return 0, fmt.Errorf("invalid ttml clock %q", value)
			}
			fraction = frac
		}
		base, err := parseClock(sec, value)
		if err != nil {
			return 0, err
		}
		return base + fraction, nil
	}
	for _, metric := range []struct {
		suffix string
		scale  float64
	}{
		{"ms", 1},
		{"h", 3_600_000},
		{"m", 60_000},
		{"s", 1000},
	} {
		if strings.HasSuffix(value, metric.suffix) {
			number := strings.TrimSuffix(value, metric.suffix)
			f, err := strconv.ParseFloat(number, 64)
			if err != nil || f < 0 {
				return 0, fmt.Errorf("invalid ttml offset %q", value)
			}
			return int64(f*metric.scale + 0.5), nil
		}
	}
	// Bare number: treated as seconds, matching common encoder output.
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid ttml time %q", value)
	}
	return int64(f*1000 + 0.5), nil
}

// FormatTTMLTime renders milliseconds as a clock time HH:MM:SS.mmm.
func FormatTTMLTime(ms int64) string {
	h, m, s, millis := splitClock(ms)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, millis)
}

func parseClock(clock, original string) (int64, error) {
	fields := strings.Split(clock, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid timecode %q", original)
	}
	hours, errH := strconv.Atoi(fields[0])
	minutes, errM := strconv.Atoi(fields[1])
	seconds, errS := strconv.Atoi(fields[2])
	if errH != nil || errM != nil || errS != nil ||
		hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid timecode %q", original)
	}
	return (int64(hours)*3600 + int64(minutes)*60 + int64(seconds)) * 1000, nil
}

func parseFraction(digits string) (int64, error) {
	if digits == "" {
		return 0, fmt.Errorf("empty fraction")
	}
	padded := (digits + "000")[:3]
	millis, err := strconv.Atoi(padded)
	if err != nil || millis < 0 {
		return 0, fmt.Errorf("invalid fraction %q", digits)
	}
	return int64(millis), nil
}

func splitClock(ms int64) (int64, int64, int64, int64) {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	millis := ms % 1000
	return totalSeconds / 3600, (totalSeconds % 3600) / 60, totalSeconds % 60, millis
}
