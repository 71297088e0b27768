package characterservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi/esi"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/optional"
	"github.com/staropera/aa-memberaudit/internal/xslices"
)

func (s *CharacterService) GetCharacterDetails(ctx context.Context, characterID int32) (*app.CharacterDetails, error) {
	return s.st.GetCharacterDetails(ctx, characterID)
}

// updateDetailsESI updates the public profile of a character from ESI
// and reports whether it has changed.
func (s *CharacterService) updateDetailsESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionCharacterDetails {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			r, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterId(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			r := data.(esi.GetCharactersCharacterIdOk)
			ids := set.Of(r.CorporationId)
			if r.AllianceId != 0 {
				ids.Add(r.AllianceId)
			}
			if _, err := s.eus.AddMissingEntities(ctx, ids); err != nil {
				return err
			}
			arg2 := storage.UpdateOrCreateCharacterDetailsParams{
				CharacterID:    characterID,
				CorporationID:  r.CorporationId,
				Birthday:       r.Birthday,
				Description:    r.Description,
				Gender:         r.Gender,
				RaceID:         r.RaceId,
				SecurityStatus: float64(r.SecurityStatus),
				Title:          r.Title,
			}
			if r.AllianceId != 0 {
				arg2.AllianceID = optional.New(r.AllianceId)
			}
			if err := s.st.UpdateOrCreateCharacterDetails(ctx, arg2); err != nil {
				return err
			}
			slog.Info("Stored character details", "characterID", characterID)
			return nil
		})
}

// updateCorporationHistoryESI updates the employment history of a character
// from ESI and reports whether it has changed.
func (s *CharacterService) updateCorporationHistoryESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionCorporationHistory {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			items, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterIdCorporationhistory(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			return items, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			items := data.([]esi.GetCharactersCharacterIdCorporationhistory200Ok)
			ids := set.Of(xslices.Map(items, func(x esi.GetCharactersCharacterIdCorporationhistory200Ok) int32 {
				return x.CorporationId
			})...)
			if _, err := s.eus.AddMissingEntities(ctx, ids); err != nil {
				return err
			}
			args := xslices.Map(items, func(x esi.GetCharactersCharacterIdCorporationhistory200Ok) storage.UpdateOrCreateCorporationHistoryParams {
				return storage.UpdateOrCreateCorporationHistoryParams{
					CharacterID:   characterID,
					RecordID:      x.RecordId,
					CorporationID: x.CorporationId,
					IsDeleted:     x.IsDeleted,
					StartDate:     x.StartDate,
				}
			})
			if err := s.st.ReplaceCorporationHistory(ctx, characterID, args); err != nil {
				return err
			}
			slog.Info("Stored corporation history", "characterID", characterID, "count", len(args))
			return nil
		})
}
