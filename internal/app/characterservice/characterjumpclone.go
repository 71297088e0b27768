package characterservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi/esi"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
)

func (s *CharacterService) ListCharacterJumpClones(ctx context.Context, characterID int32) ([]*app.CharacterJumpClone, error) {
	return s.st.ListCharacterJumpClones(ctx, characterID)
}

// updateJumpClonesESI updates the jump clones of a character from ESI
// and reports whether they have changed.
func (s *CharacterService) updateJumpClonesESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionJumpClones {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			clones, _, err := s.esiClient.ESI.ClonesApi.GetCharactersCharacterIdClones(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			slog.Debug("Received jump clones from ESI", "characterID", characterID, "count", len(clones.JumpClones))
			return clones, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			clones := data.(esi.GetCharactersCharacterIdClonesOk)
			var implantIDs set.Set[int32]
			for _, jc := range clones.JumpClones {
				for _, id := range jc.Implants {
					implantIDs.Add(id)
				}
			}
			if _, err := s.eus.AddMissingEntities(ctx, implantIDs); err != nil {
				return err
			}
			// Locations are resolved before the replace so the transaction
			// never waits on the network.
			args := make([]storage.CreateCharacterJumpCloneParams, len(clones.JumpClones))
			for i, jc := range clones.JumpClones {
				if _, err := s.eus.GetOrCreateLocationESI(ctx, jc.LocationId); err != nil {
					return err
				}
				args[i] = storage.CreateCharacterJumpCloneParams{
					CharacterID: characterID,
					JumpCloneID: jc.JumpCloneId,
					LocationID:  jc.LocationId,
					Name:        jc.Name,
					ImplantIDs:  jc.Implants,
				}
			}
			if err := s.st.ReplaceCharacterJumpClones(ctx, characterID, args); err != nil {
				return err
			}
			slog.Info("Stored updated jump clones", "characterID", characterID, "count", len(args))
			return nil
		})
}
