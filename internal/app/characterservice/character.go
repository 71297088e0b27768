package characterservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

func (s *CharacterService) GetCharacter(ctx context.Context, characterID int32) (*app.Character, error) {
	return s.st.GetCharacter(ctx, characterID)
}

func (s *CharacterService) ListCharacters(ctx context.Context) ([]*app.Character, error) {
	return s.st.ListCharacters(ctx)
}

// UpdateCharacter starts a full refresh of a character. All previous section
// statuses are deleted first, then one task per section is submitted.
// Sections fail independently, a failed section never blocks the others.
func (s *CharacterService) UpdateCharacter(ctx context.Context, characterID int32, hasPriority bool) error {
	if err := s.st.DeleteCharacterSectionStatus(ctx, characterID); err != nil {
		return err
	}
	s.scs.ClearCharacterSections(characterID)
	priority := taskqueue.PriorityDefault
	if hasPriority {
		priority = taskqueue.PriorityHigh
	}
	for _, section := range app.CharacterSections {
		s.queue.Submit(taskqueue.Task{
			Name:     fmt.Sprintf("update-character-%d-%s", characterID, section),
			Priority: priority,
			Run: func(ctx context.Context) error {
				_, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
					CharacterID: characterID,
					Section:     section,
				})
				if err != nil {
					slog.Error("Failed to update character section", "characterID", characterID, "section", section, "error", err)
				}
				return err
			},
		})
	}
	slog.Info("Submitted character update", "characterID", characterID, "sections", len(app.CharacterSections))
	return nil
}

// UpdateAllCharacters submits a refresh for every tracked character.
func (s *CharacterService) UpdateAllCharacters(ctx context.Context) error {
	ids, err := s.st.ListCharacterIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.UpdateCharacter(ctx, id, false); err != nil {
			return err
		}
	}
	slog.Info("Submitted update for all characters", "count", len(ids))
	return nil
}
