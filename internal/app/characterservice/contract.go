package characterservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi/esi"
	esioptional "github.com/antihax/goesi/optional"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/optional"
	"github.com/staropera/aa-memberaudit/internal/xslices"
)

func (s *CharacterService) ListContracts(ctx context.Context, characterID int32) ([]*app.CharacterContract, error) {
	return s.st.ListCharacterContracts(ctx, characterID)
}

var contractAvailabilityFromESIValue = map[string]app.ContractAvailability{
	"alliance":    app.ContractAvailabilityAlliance,
	"corporation": app.ContractAvailabilityCorporation,
	"personal":    app.ContractAvailabilityPersonal,
	"public":      app.ContractAvailabilityPublic,
}

var contractStatusFromESIValue = map[string]app.ContractStatus{
	"cancelled":           app.ContractStatusCancelled,
	"deleted":             app.ContractStatusDeleted,
	"failed":              app.ContractStatusFailed,
	"finished":            app.ContractStatusFinished,
	"finished_contractor": app.ContractStatusFinishedContractor,
	"finished_issuer":     app.ContractStatusFinishedIssuer,
	"in_progress":         app.ContractStatusInProgress,
	"outstanding":         app.ContractStatusOutstanding,
	"rejected":            app.ContractStatusRejected,
	"reversed":            app.ContractStatusReversed,
}

var contractTypeFromESIValue = map[string]app.ContractType{
	"auction":       app.ContractTypeAuction,
	"courier":       app.ContractTypeCourier,
	"item_exchange": app.ContractTypeItemExchange,
	"loan":          app.ContractTypeLoan,
	"unknown":       app.ContractTypeUnknown,
}

// updateContractsESI updates the contracts of a character from ESI and
// reports whether they have changed. Contract rows are upserted, item and
// bid child rows are fully replaced each pass.
func (s *CharacterService) updateContractsESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionContracts {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			contracts, err := fetchFromESIWithPaging(
				func(pageNum int) ([]esi.GetCharactersCharacterIdContracts200Ok, *http.Response, error) {
					opts := &esi.GetCharactersCharacterIdContractsOpts{
						Page: esioptional.NewInt32(int32(pageNum)),
					}
					return s.esiClient.ESI.ContractsApi.GetCharactersCharacterIdContracts(ctx, characterID, opts)
				})
			if err != nil {
				return nil, err
			}
			slog.Debug("Received contracts from ESI", "characterID", characterID, "count", len(contracts))
			return contracts, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			contracts := data.([]esi.GetCharactersCharacterIdContracts200Ok)
			var ids set.Set[int32]
			for _, c := range contracts {
				ids.Add(c.IssuerId)
				ids.Add(c.IssuerCorporationId)
				if c.AcceptorId != 0 {
					ids.Add(c.AcceptorId)
				}
				if c.AssigneeId != 0 {
					ids.Add(c.AssigneeId)
				}
			}
			if _, err := s.eus.AddMissingEntities(ctx, ids); err != nil {
				return err
			}
			for _, c := range contracts {
				if err := s.storeContract(ctx, characterID, c); err != nil {
					return err
				}
			}
			for _, c := range contracts {
				if err := s.updateContractChildRows(ctx, characterID, c); err != nil {
					slog.Warn("Failed to update contract child rows", "characterID", characterID, "contractID", c.ContractId, "error", err)
				}
			}
			slog.Info("Stored contracts", "characterID", characterID, "count", len(contracts))
			return nil
		})
}

func (s *CharacterService) storeContract(ctx context.Context, characterID int32, c esi.GetCharactersCharacterIdContracts200Ok) error {
	availability, ok := contractAvailabilityFromESIValue[c.Availability]
	if !ok {
		return fmt.Errorf("contract %d: unknown availability: %s", c.ContractId, c.Availability)
	}
	status, ok := contractStatusFromESIValue[c.Status]
	if !ok {
		return fmt.Errorf("contract %d: unknown status: %s", c.ContractId, c.Status)
	}
	typ, ok := contractTypeFromESIValue[c.Type_]
	if !ok {
		return fmt.Errorf("contract %d: unknown type: %s", c.ContractId, c.Type_)
	}
	arg := storage.UpdateOrCreateCharacterContractParams{
		CharacterID:         characterID,
		ContractID:          c.ContractId,
		Availability:        availability,
		Buyout:              c.Buyout,
		Collateral:          c.Collateral,
		DateExpired:         c.DateExpired,
		DateIssued:          c.DateIssued,
		DaysToComplete:      c.DaysToComplete,
		ForCorporation:      c.ForCorporation,
		IssuerID:            c.IssuerId,
		IssuerCorporationID: c.IssuerCorporationId,
		Price:               c.Price,
		Reward:              c.Reward,
		Status:              status,
		Title:               c.Title,
		Type:                typ,
		Volume:              c.Volume,
	}
	if c.AcceptorId != 0 {
		arg.AcceptorID = optional.New(c.AcceptorId)
	}
	if c.AssigneeId != 0 {
		arg.AssigneeID = optional.New(c.AssigneeId)
	}
	if !c.DateAccepted.IsZero() {
		arg.DateAccepted = optional.New(c.DateAccepted)
	}
	if !c.DateCompleted.IsZero() {
		arg.DateCompleted = optional.New(c.DateCompleted)
	}
	if c.StartLocationId != 0 {
		if _, err := s.eus.GetOrCreateLocationAsync(ctx, c.StartLocationId, characterID); err != nil {
			return err
		}
		arg.StartLocationID = optional.New(c.StartLocationId)
	}
	if c.EndLocationId != 0 {
		if _, err := s.eus.GetOrCreateLocationAsync(ctx, c.EndLocationId, characterID); err != nil {
			return err
		}
		arg.EndLocationID = optional.New(c.EndLocationId)
	}
	return s.st.UpdateOrCreateCharacterContract(ctx, arg)
}

// updateContractChildRows replaces the item and bid rows of one contract.
// Deleted contracts are skipped, their sub resources are gone upstream.
func (s *CharacterService) updateContractChildRows(ctx context.Context, characterID int32, c esi.GetCharactersCharacterIdContracts200Ok) error {
	if contractStatusFromESIValue[c.Status] == app.ContractStatusDeleted {
		return nil
	}
	o := app.CharacterContract{Type: contractTypeFromESIValue[c.Type_]}
	if o.HasItems() {
		items, _, err := s.esiClient.ESI.ContractsApi.GetCharactersCharacterIdContractsContractIdItems(ctx, characterID, c.ContractId, nil)
		if err != nil {
			return err
		}
		var typeIDs set.Set[int32]
		for _, it := range items {
			typeIDs.Add(it.TypeId)
		}
		if _, err := s.eus.AddMissingEntities(ctx, typeIDs); err != nil {
			return err
		}
		args := xslices.Map(items, func(it esi.GetCharactersCharacterIdContractsContractIdItems200Ok) storage.CreateCharacterContractItemParams {
			arg := storage.CreateCharacterContractItemParams{
				RecordID:    it.RecordId,
				IsIncluded:  it.IsIncluded,
				IsSingleton: it.IsSingleton,
				Quantity:    it.Quantity,
				EveTypeID:   it.TypeId,
			}
			if it.RawQuantity != 0 {
				arg.RawQuantity = optional.New(it.RawQuantity)
			}
			return arg
		})
		if err := s.st.ReplaceCharacterContractItems(ctx, characterID, c.ContractId, args); err != nil {
			return err
		}
	}
	if o.HasBids() {
		bids, _, err := s.esiClient.ESI.ContractsApi.GetCharactersCharacterIdContractsContractIdBids(ctx, characterID, c.ContractId, nil)
		if err != nil {
			return err
		}
		var bidderIDs set.Set[int32]
		for _, b := range bids {
			if b.BidderId != 0 {
				bidderIDs.Add(b.BidderId)
			}
		}
		if _, err := s.eus.AddMissingEntities(ctx, bidderIDs); err != nil {
			return err
		}
		args := xslices.Map(bids, func(b esi.GetCharactersCharacterIdContractsContractIdBids200Ok) storage.CreateCharacterContractBidParams {
			return storage.CreateCharacterContractBidParams{
				BidID:    b.BidId,
				Amount:   float64(b.Amount),
				BidderID: b.BidderId,
				DateBid:  b.DateBid,
			}
		})
		if err := s.st.ReplaceCharacterContractBids(ctx, characterID, c.ContractId, args); err != nil {
			return err
		}
	}
	return nil
}
