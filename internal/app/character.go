package app

import (
	"time"

	"github.com/staropera/aa-memberaudit/internal/optional"
)

// CharacterDetails is the public profile of a character.
type CharacterDetails struct {
	CharacterID    int32
	Corporation    *EveEntity
	Alliance       *EveEntity
	Birthday       time.Time
	Description    string
	Gender         string
	RaceID         int32
	SecurityStatus float64
	Title          string
}

// A CharacterCorporationHistoryEntry is one employment record of a character.
type CharacterCorporationHistoryEntry struct {
	CharacterID int32
	RecordID    int32
	Corporation *EveEntity
	IsDeleted   bool
	StartDate   time.Time
}

// A CharacterJumpClone is a clone of a character with its implants.
type CharacterJumpClone struct {
	ID          int64
	CharacterID int32
	JumpCloneID int32
	Name        string
	Location    *EveLocation
	Implants    []*EveEntity
}

// CharacterSkillPoints is the skill point summary of a character.
type CharacterSkillPoints struct {
	CharacterID int32
	Total       int64
	Unallocated optional.Optional[int32]
}

// A CharacterSkill is one trained skill of a character.
type CharacterSkill struct {
	CharacterID        int32
	EveType            *EveEntity
	ActiveSkillLevel   int
	TrainedSkillLevel  int
	SkillPointsInSkill int
}

// CharacterWalletBalance is the current ISK balance of a character.
type CharacterWalletBalance struct {
	CharacterID int32
	Balance     float64
	UpdatedAt   time.Time
}
