package app

// EveEntityCategory is the category of an EveEntity.
type EveEntityCategory string

const (
	EveEntityAlliance      EveEntityCategory = "alliance"
	EveEntityCharacter     EveEntityCategory = "character"
	EveEntityCorporation   EveEntityCategory = "corporation"
	EveEntityConstellation EveEntityCategory = "constellation"
	EveEntityFaction       EveEntityCategory = "faction"
	EveEntityInventoryType EveEntityCategory = "inventory_type"
	EveEntityMailList      EveEntityCategory = "mail_list"
	EveEntityRegion        EveEntityCategory = "region"
	EveEntitySolarSystem   EveEntityCategory = "solar_system"
	EveEntityStation       EveEntityCategory = "station"
	EveEntityUnknown       EveEntityCategory = "unknown"
)

// An EveEntity is a cached, globally shared reference object identified by
// its upstream ID. Entities are created lazily on first reference and never
// deleted by the sync core.
type EveEntity struct {
	ID       int32
	Name     string
	Category EveEntityCategory
}

func (e *EveEntity) IsCharacter() bool {
	return e.Category == EveEntityCharacter
}

func (e *EveEntity) IsMailList() bool {
	return e.Category == EveEntityMailList
}
