package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"subqc/internal/report"
	"subqc/internal/subtitle"
)

// Run is one persisted QC run. The document snapshot is the run's output
// state: for analyze runs the decoded input, for fix runs the fixed
// document.
type Run struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	SourceFile   string    `json:"sourceFile"`
	SourceFormat string    `json:"sourceFormat"`
	ProfileID    string    `json:"profileId"`
	Mode         string    `json:"mode"`

	Document *subtitle.Document `json:"document"`
	Report   *report.Report     `json:"report"`

	FixCount      int `json:"fixCount"`
	ResidualCount int `json:"residualCount"`
}

// NewRun builds a run row with a fresh id.
func NewRun(sourceFile string, doc *subtitle.Document, rep *report.Report) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		SourceFile: sourceFile,
		Document:   doc,
		Report:     rep,
	}
	if doc != nil {
		run.SourceFormat = doc.SourceFormat
	}
	if rep != nil {
		run.ProfileID = rep.ProfileID
		run.Mode = rep.Mode
		run.FixCount = len(rep.Fixes)
		run.ResidualCount = len(rep.Residual)
	}
	return run
}

func (r *Run) marshalDocument() (string, error) {
	data, err := json.Marshal(r.Document)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

func (r *Run) marshalReport() (string, error) {
	data, err := json.Marshal(r.Report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(data), nil
}
