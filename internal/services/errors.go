package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks malformed input that could not be decoded. Partial
	// decode failures are surfaced as skipped-block warnings instead; a
	// document with zero decodable cues is wrapped with this marker.
	ErrParse = errors.New("parse error")
	// ErrUnsupportedFormat marks input in a format this engine does not
	// convert (playout binary captions and similar). The caller must
	// pre-convert to SRT, WebVTT, or TTML.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrUnknownProfile marks a rule profile id the registry does not know.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrRewrite marks a failure in the rewrite-proposal flow: the model
	// could not be reached or returned an unusable payload.
	ErrRewrite = errors.New("rewrite failed")
	// ErrFixVerification marks a proposed fix that failed re-validation.
	// The engine recovers by reverting the fix and keeping the issue open;
	// this marker never surfaces as a run failure.
	ErrFixVerification = errors.New("fix verification failed")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrParse
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the run instead of degrading
// to a warning. Fix verification failures are always recovered internally.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrFixVerification)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "qc failure"
	}
	return strings.Join(parts, ": ")
}
