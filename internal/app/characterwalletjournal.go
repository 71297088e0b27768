package app

import (
	"time"

	"github.com/staropera/aa-memberaudit/internal/optional"
)

// ContextIDType classifies the context reference of a wallet journal entry.
type ContextIDType string

const (
	ContextIDTypeUndefined         ContextIDType = "undefined"
	ContextIDTypeStructureID       ContextIDType = "structure_id"
	ContextIDTypeStationID         ContextIDType = "station_id"
	ContextIDTypeMarketTransaction ContextIDType = "market_transaction_id"
	ContextIDTypeCharacterID       ContextIDType = "character_id"
	ContextIDTypeCorporationID     ContextIDType = "corporation_id"
	ContextIDTypeAllianceID        ContextIDType = "alliance_id"
	ContextIDTypeEveSystem         ContextIDType = "eve_system"
	ContextIDTypeIndustryJobID     ContextIDType = "industry_job_id"
	ContextIDTypeContractID        ContextIDType = "contract_id"
	ContextIDTypePlanetID          ContextIDType = "planet_id"
	ContextIDTypeSystemID          ContextIDType = "system_id"
	ContextIDTypeTypeID            ContextIDType = "type_id"
)

// ContextIDTypeFromESIValue maps the upstream context type to the internal
// enumeration. Unmapped values become undefined, never an error.
func ContextIDTypeFromESIValue(v string) ContextIDType {
	m := map[string]ContextIDType{
		"structure_id":          ContextIDTypeStructureID,
		"station_id":            ContextIDTypeStationID,
		"market_transaction_id": ContextIDTypeMarketTransaction,
		"character_id":          ContextIDTypeCharacterID,
		"corporation_id":        ContextIDTypeCorporationID,
		"alliance_id":           ContextIDTypeAllianceID,
		"eve_system":            ContextIDTypeEveSystem,
		"industry_job_id":       ContextIDTypeIndustryJobID,
		"contract_id":           ContextIDTypeContractID,
		"planet_id":             ContextIDTypePlanetID,
		"system_id":             ContextIDTypeSystemID,
		"type_id":               ContextIDTypeTypeID,
	}
	t, ok := m[v]
	if !ok {
		return ContextIDTypeUndefined
	}
	return t
}

// A CharacterWalletJournalEntry is one immutable ledger entry.
// The journal is append only upstream, so entries are upserted and never deleted.
type CharacterWalletJournalEntry struct {
	CharacterID   int32
	RefID         int64
	Amount        float64
	Balance       float64
	ContextID     optional.Optional[int64]
	ContextIDType ContextIDType
	Date          time.Time
	Description   string
	FirstParty    *EveEntity
	SecondParty   *EveEntity
	Reason        string
	RefType       string
	Tax           optional.Optional[float64]
	TaxReceiver   *EveEntity
}
