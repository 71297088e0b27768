package characterservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi/esi"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

func (s *CharacterService) ListCharacterSkills(ctx context.Context, characterID int32) ([]*app.CharacterSkill, error) {
	return s.st.ListCharacterSkills(ctx, characterID)
}

// updateSkillsESI updates the skills of a character from ESI and reports
// whether they have changed. Skills absent upstream are deleted locally.
func (s *CharacterService) updateSkillsESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionSkills {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	return s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			skills, _, err := s.esiClient.ESI.SkillsApi.GetCharactersCharacterIdSkills(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			return skills, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			skills := data.(esi.GetCharactersCharacterIdSkillsOk)
			arg2 := storage.UpdateOrCreateCharacterSkillPointsParams{
				CharacterID: characterID,
				Total:       skills.TotalSp,
			}
			if skills.UnallocatedSp != 0 {
				arg2.Unallocated = optional.New(skills.UnallocatedSp)
			}
			if err := s.st.UpdateOrCreateCharacterSkillPoints(ctx, arg2); err != nil {
				return err
			}
			var incomingIDs set.Set[int32]
			for _, o := range skills.Skills {
				incomingIDs.Add(o.SkillId)
			}
			if _, err := s.eus.AddMissingEntities(ctx, incomingIDs); err != nil {
				return err
			}
			for _, o := range skills.Skills {
				err := s.st.UpdateOrCreateCharacterSkill(ctx, storage.UpdateOrCreateCharacterSkillParams{
					CharacterID:        characterID,
					EveTypeID:          o.SkillId,
					ActiveSkillLevel:   int(o.ActiveSkillLevel),
					TrainedSkillLevel:  int(o.TrainedSkillLevel),
					SkillPointsInSkill: int(o.SkillpointsInSkill),
				})
				if err != nil {
					return err
				}
			}
			currentIDs, err := s.st.ListCharacterSkillIDs(ctx, characterID)
			if err != nil {
				return err
			}
			obsoleteIDs := currentIDs.Clone()
			for id := range incomingIDs.All() {
				obsoleteIDs.Delete(id)
			}
			if obsoleteIDs.Size() > 0 {
				if err := s.st.DeleteCharacterSkills(ctx, characterID, slices.Collect(obsoleteIDs.All())); err != nil {
					return err
				}
			}
			slog.Info("Stored updated skills", "characterID", characterID, "count", len(skills.Skills), "deleted", obsoleteIDs.Size())
			return nil
		})
}
