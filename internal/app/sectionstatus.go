package app

import "time"

// Status is the aggregate update health of a character.
type Status uint

const (
	// StatusIncomplete means an update pass has not yet produced a result
	// for every section and no failures are recorded.
	StatusIncomplete Status = iota
	// StatusOK means every section has a successful status.
	StatusOK
	// StatusError means at least one section failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	}
	return "incomplete"
}

// A CharacterSectionStatus records the result of the latest update of one
// section for one character. There is at most one per (character, section).
type CharacterSectionStatus struct {
	CharacterID  int32
	Section      CharacterSection
	ContentHash  string
	ErrorMessage string
	IsSuccess    bool
	UpdatedAt    time.Time
}

// HasError reports whether the last update of the section failed.
func (s CharacterSectionStatus) HasError() bool {
	return !s.IsSuccess
}

// AggregateStatus derives the ternary health from the status rows of one
// character against the closed section set.
func AggregateStatus(statuses []*CharacterSectionStatus) Status {
	ok := 0
	for _, s := range statuses {
		if s.HasError() {
			return StatusError
		}
		ok++
	}
	if ok == len(CharacterSections) {
		return StatusOK
	}
	return StatusIncomplete
}
