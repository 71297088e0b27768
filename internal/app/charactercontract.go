package app

import (
	"time"

	"github.com/staropera/aa-memberaudit/internal/optional"
)

type ContractAvailability string

const (
	ContractAvailabilityAlliance    ContractAvailability = "alliance"
	ContractAvailabilityCorporation ContractAvailability = "corporation"
	ContractAvailabilityPersonal    ContractAvailability = "personal"
	ContractAvailabilityPublic      ContractAvailability = "public"
	ContractAvailabilityUndefined   ContractAvailability = "undefined"
)

type ContractStatus string

const (
	ContractStatusCancelled          ContractStatus = "cancelled"
	ContractStatusDeleted            ContractStatus = "deleted"
	ContractStatusFailed             ContractStatus = "failed"
	ContractStatusFinished           ContractStatus = "finished"
	ContractStatusFinishedContractor ContractStatus = "finished_contractor"
	ContractStatusFinishedIssuer     ContractStatus = "finished_issuer"
	ContractStatusInProgress         ContractStatus = "in_progress"
	ContractStatusOutstanding        ContractStatus = "outstanding"
	ContractStatusRejected           ContractStatus = "rejected"
	ContractStatusReversed           ContractStatus = "reversed"
	ContractStatusUndefined          ContractStatus = "undefined"
)

type ContractType string

const (
	ContractTypeAuction      ContractType = "auction"
	ContractTypeCourier      ContractType = "courier"
	ContractTypeItemExchange ContractType = "item_exchange"
	ContractTypeLoan         ContractType = "loan"
	ContractTypeUnknown      ContractType = "unknown"
	ContractTypeUndefined    ContractType = "undefined"
)

// A CharacterContract is one contract a character is involved in.
type CharacterContract struct {
	ID                int64
	CharacterID       int32
	ContractID        int32
	Acceptor          *EveEntity
	Assignee          *EveEntity
	Availability      ContractAvailability
	Buyout            float64
	Collateral        float64
	DateAccepted      optional.Optional[time.Time]
	DateCompleted     optional.Optional[time.Time]
	DateExpired       time.Time
	DateIssued        time.Time
	DaysToComplete    int32
	EndLocation       *EveLocation
	ForCorporation    bool
	Issuer            *EveEntity
	IssuerCorporation *EveEntity
	Price             float64
	Reward            float64
	StartLocation     *EveLocation
	Status            ContractStatus
	Title             string
	Type              ContractType
	Volume            float64
}

// HasItems reports whether a contract type carries item sub resources.
func (c CharacterContract) HasItems() bool {
	return c.Type == ContractTypeItemExchange || c.Type == ContractTypeAuction
}

// HasBids reports whether a contract type carries bid sub resources.
func (c CharacterContract) HasBids() bool {
	return c.Type == ContractTypeAuction
}

// A CharacterContractItem is one item included in or asked for by a contract.
type CharacterContractItem struct {
	CharacterID int32
	ContractID  int32
	RecordID    int64
	IsIncluded  bool
	IsSingleton bool
	Quantity    int32
	RawQuantity optional.Optional[int32]
	Type        *EveEntity
}

// A CharacterContractBid is one bid on an auction contract.
type CharacterContractBid struct {
	CharacterID int32
	ContractID  int32
	BidID       int32
	Amount      float64
	DateBid     time.Time
	Bidder      *EveEntity
}
