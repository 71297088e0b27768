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
)

func (s *CharacterService) GetWalletBalance(ctx context.Context, characterID int32) (*app.CharacterWalletBalance, error) {
	return s.st.GetCharacterWalletBalance(ctx, characterID)
}

func (s *CharacterService) ListWalletJournalEntries(ctx context.Context, characterID int32) ([]*app.CharacterWalletJournalEntry, error) {
	return s.st.ListCharacterWalletJournalEntries(ctx, characterID)
}

// updateWalletBalanceESI updates the wallet balance of a character from ESI
// and reports whether it has changed.
func (s *CharacterService) updateWalletBalanceESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionWalletBalance {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			balance, _, err := s.esiClient.ESI.WalletApi.GetCharactersCharacterIdWallet(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			return balance, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			balance := data.(float64)
			return s.st.UpdateOrCreateCharacterWalletBalance(ctx, characterID, balance)
		})
}

// updateWalletJournalESI updates the wallet journal of a character from ESI
// and reports whether it has changed. The journal is append only, entries
// are upserted by ref ID and never deleted.
func (s *CharacterService) updateWalletJournalESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionWalletJournal {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			entries, err := fetchFromESIWithPaging(
				func(pageNum int) ([]esi.GetCharactersCharacterIdWalletJournal200Ok, *http.Response, error) {
					opts := &esi.GetCharactersCharacterIdWalletJournalOpts{
						Page: esioptional.NewInt32(int32(pageNum)),
					}
					return s.esiClient.ESI.WalletApi.GetCharactersCharacterIdWalletJournal(ctx, characterID, opts)
				})
			if err != nil {
				return nil, err
			}
			slog.Debug("Received wallet journal from ESI", "characterID", characterID, "count", len(entries))
			return entries, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			entries := data.([]esi.GetCharactersCharacterIdWalletJournal200Ok)
			existingIDs, err := s.st.ListCharacterWalletJournalRefIDs(ctx, characterID)
			if err != nil {
				return err
			}
			var newEntries []esi.GetCharactersCharacterIdWalletJournal200Ok
			for _, e := range entries {
				if existingIDs.Contains(e.Id) {
					continue
				}
				newEntries = append(newEntries, e)
			}
			if len(newEntries) == 0 {
				slog.Info("No new wallet journal entries", "characterID", characterID)
				return nil
			}
			var ids set.Set[int32]
			for _, e := range newEntries {
				if e.FirstPartyId != 0 {
					ids.Add(e.FirstPartyId)
				}
				if e.SecondPartyId != 0 {
					ids.Add(e.SecondPartyId)
				}
				if e.TaxReceiverId != 0 {
					ids.Add(e.TaxReceiverId)
				}
			}
			if _, err := s.eus.AddMissingEntities(ctx, ids); err != nil {
				return err
			}
			for _, o := range newEntries {
				arg2 := storage.UpsertCharacterWalletJournalEntryParams{
					CharacterID:   characterID,
					RefID:         o.Id,
					Amount:        o.Amount,
					Balance:       o.Balance,
					ContextIDType: app.ContextIDTypeFromESIValue(o.ContextIdType),
					Date:          o.Date,
					Description:   o.Description,
					Reason:        o.Reason,
					RefType:       o.RefType,
				}
				if o.ContextId != 0 {
					arg2.ContextID = optional.New(o.ContextId)
				}
				if o.FirstPartyId != 0 {
					arg2.FirstPartyID = optional.New(o.FirstPartyId)
				}
				if o.SecondPartyId != 0 {
					arg2.SecondPartyID = optional.New(o.SecondPartyId)
				}
				if o.Tax != 0 {
					arg2.Tax = optional.New(o.Tax)
				}
				if o.TaxReceiverId != 0 {
					arg2.TaxReceiverID = optional.New(o.TaxReceiverId)
				}
				if err := s.st.UpsertCharacterWalletJournalEntry(ctx, arg2); err != nil {
					return err
				}
			}
			slog.Info("Stored new wallet journal entries", "characterID", characterID, "count", len(newEntries))
			return nil
		})
}
