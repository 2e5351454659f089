package profile

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"subqc/internal/services"
)

//go:embed profiles.toml
var builtinProfiles []byte

type profileFile struct {
	Profiles map[string]profileTable `toml:"profiles"`
}

type profileTable struct {
	MaxCPL               int               `toml:"max_cpl"`
	MinCPL               int               `toml:"min_cpl"`
	MaxLines             int               `toml:"max_lines"`
	MinDurationMs        int64             `toml:"min_duration_ms"`
	MaxDurationMs        int64             `toml:"max_duration_ms"`
	MinGapMs             int64             `toml:"min_gap_ms"`
	MaxCPS               float64           `toml:"max_cps"`
	EllipsisChar         string            `toml:"ellipsis_char"`
	EllipsisNoInnerSpace bool              `toml:"ellipsis_no_inner_space"`
	DualSpeakerDash      string            `toml:"dual_speaker_dash"`
	GuidelineURLs        []string          `toml:"guideline_urls"`
	Severity             map[string]string `toml:"severity"`
}

// Registry holds the loaded rule profiles. Read-only after construction,
// safe for unsynchronized concurrent reads.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry loads the built-in profile catalogue plus any extra TOML
// files, validating every profile. Extra files may add new profiles or
// shadow built-ins by id.
func NewRegistry(extraPaths ...string) (*Registry, error) {
	reg := &Registry{profiles: make(map[string]*Profile)}
	if err := reg.merge(builtinProfiles, "builtin"); err != nil {
		return nil, err
	}
	for _, path := range extraPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile file %s: %w", path, err)
		}
		if err := reg.merge(data, path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) merge(data []byte, source string) error {
	var file profileFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse profiles from %s: %w", source, err)
	}
	for id, table := range file.Profiles {
		prof := &Profile{
			ID:                   id,
			MaxCPL:               table.MaxCPL,
			MinCPL:               table.MinCPL,
			MaxLines:             table.MaxLines,
			MinDurationMs:        table.MinDurationMs,
			MaxDurationMs:        table.MaxDurationMs,
			MinGapMs:             table.MinGapMs,
			MaxCPS:               table.MaxCPS,
			EllipsisChar:         table.EllipsisChar,
			EllipsisNoInnerSpace: table.EllipsisNoInnerSpace,
			DualSpeakerDash:      table.DualSpeakerDash,
			GuidelineURLs:        append([]string(nil), table.GuidelineURLs...),
			Severities:           table.Severity,
		}
		if err := prof.Validate(); err != nil {
			return fmt.Errorf("profiles from %s: %w", source, err)
		}
		r.profiles[id] = prof
	}
	return nil
}

// Get returns the profile for an id.
func (r *Registry) Get(id string) (*Profile, error) {
	prof, ok := r.profiles[id]
	if !ok {
		return nil, services.Wrap(services.ErrUnknownProfile, "registry", "get", id, nil)
	}
	return prof, nil
}

// IDs returns the known profile ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
