package mkv

import (
	"fmt"
	"strings"
)

// ExtractionState tracks one asset through an extraction run.
//
// The zero value is StateUnmarked. States only move forward:
// Unmarked -> Marked -> Succeeded | Failed.
type ExtractionState int

const (
	StateUnmarked ExtractionState = iota
	StateMarked
	StateSucceeded
	StateFailed
)

func (s ExtractionState) String() string {
	switch s {
	case StateMarked:
		return "marked"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unmarked"
	}
}

// Terminal reports whether the state can no longer change.
func (s ExtractionState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Mark moves an unmarked asset to Marked. Any other state is left untouched.
func (s *ExtractionState) Mark() bool {
	if *s != StateUnmarked {
		return false
	}
	*s = StateMarked
	return true
}

// Succeed completes a marked asset.
func (s *ExtractionState) Succeed() bool {
	if *s != StateMarked {
		return false
	}
	*s = StateSucceeded
	return true
}

// Fail completes a marked asset unsuccessfully.
func (s *ExtractionState) Fail() bool {
	if *s != StateMarked {
		return false
	}
	*s = StateFailed
	return true
}

// ParseExtractionState converts the serialized form back into a state.
func ParseExtractionState(value string) (ExtractionState, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unmarked":
		return StateUnmarked, nil
	case "marked":
		return StateMarked, nil
	case "succeeded":
		return StateSucceeded, nil
	case "failed":
		return StateFailed, nil
	default:
		return StateUnmarked, fmt.Errorf("unknown extraction state %q", value)
	}
}

func (s ExtractionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ExtractionState) UnmarshalText(text []byte) error {
	parsed, err := ParseExtractionState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsZero reports whether the asset was never selected.
func (s ExtractionState) IsZero() bool {
	return s == StateUnmarked
}
