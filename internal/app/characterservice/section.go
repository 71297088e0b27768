package characterservice

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/antihax/goesi"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
)

// UpdateSectionIfNeeded updates a section from ESI if its content has changed
// and reports whether it has changed. Any failure is recorded as a failed
// status row for the section before the error is returned.
func (s *CharacterService) UpdateSectionIfNeeded(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.CharacterID == 0 || arg.Section == "" {
		return false, fmt.Errorf("update section: %+v: %w", arg, app.ErrInvalid)
	}
	var f func(context.Context, app.CharacterUpdateSectionParams) (bool, error)
	switch arg.Section {
	case app.SectionCharacterDetails:
		f = s.updateDetailsESI
	case app.SectionCorporationHistory:
		f = s.updateCorporationHistoryESI
	case app.SectionJumpClones:
		f = s.updateJumpClonesESI
	case app.SectionMails:
		f = s.updateMailsESI
	case app.SectionSkills:
		f = s.updateSkillsESI
	case app.SectionWalletBalance:
		f = s.updateWalletBalanceESI
	case app.SectionWalletJournal:
		f = s.updateWalletJournalESI
	case app.SectionContracts:
		f = s.updateContractsESI
	default:
		return false, fmt.Errorf("update section: unknown section: %s", arg.Section)
	}
	key := fmt.Sprintf("update-character-section-%s-%d", arg.Section, arg.CharacterID)
	x, err, _ := s.sfg.Do(key, func() (any, error) {
		return f(ctx, arg)
	})
	if err != nil {
		o, err2 := s.st.UpdateOrCreateCharacterSectionStatus(ctx, storage.UpdateOrCreateCharacterSectionStatusParams{
			CharacterID:  arg.CharacterID,
			Section:      arg.Section,
			IsSuccess:    false,
			ErrorMessage: err.Error(),
		})
		if err2 != nil {
			slog.Error("Failed to record error for failed section update", "characterID", arg.CharacterID, "section", arg.Section, "error", err2)
		} else {
			s.scs.SetCharacterSection(o)
		}
		return false, fmt.Errorf("update character section %s for character %d: %w", arg.Section, arg.CharacterID, err)
	}
	changed := x.(bool)
	slog.Info("Character section update completed", "characterID", arg.CharacterID, "section", arg.Section, "forced", arg.ForceUpdate, "changed", changed)
	return changed, nil
}

// updateSectionIfChanged runs one section update and reports whether the
// content has changed. The update step only runs when the payload hash
// differs from the stored one or the update is forced. A successful pass
// always records a fresh OK status row, even when nothing changed.
func (s *CharacterService) updateSectionIfChanged(
	ctx context.Context,
	arg app.CharacterUpdateSectionParams,
	fetch func(ctx context.Context, characterID int32) (any, error),
	update func(ctx context.Context, characterID int32, data any) error,
) (bool, error) {
	token, err := s.GetValidCharacterToken(ctx, arg.CharacterID)
	if err != nil {
		return false, err
	}
	if !token.HasScopes(arg.Section.Scopes()...) {
		return false, fmt.Errorf("section %s for character %d: %w", arg.Section, arg.CharacterID, app.ErrTokenScope)
	}
	ctx = context.WithValue(ctx, goesi.ContextAccessToken, token.AccessToken)
	data, err := fetch(ctx, arg.CharacterID)
	if err != nil {
		return false, err
	}
	hash, err := calcContentHash(data)
	if err != nil {
		return false, err
	}

	var notFound, hasChanged bool
	u, err := s.st.GetCharacterSectionStatus(ctx, arg.CharacterID, arg.Section)
	if errors.Is(err, app.ErrNotFound) {
		notFound = true
	} else if err != nil {
		return false, err
	} else {
		hasChanged = u.ContentHash != hash
	}

	if arg.ForceUpdate || notFound || hasChanged {
		if err := update(ctx, arg.CharacterID, data); err != nil {
			return false, err
		}
	}

	o, err := s.st.UpdateOrCreateCharacterSectionStatus(ctx, storage.UpdateOrCreateCharacterSectionStatusParams{
		CharacterID: arg.CharacterID,
		Section:     arg.Section,
		IsSuccess:   true,
		ContentHash: hash,
	})
	if err != nil {
		return false, err
	}
	s.scs.SetCharacterSection(o)
	slog.Debug("Has section changed", "characterID", arg.CharacterID, "section", arg.Section, "changed", hasChanged)
	return hasChanged, nil
}

func calcContentHash(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	b2 := md5.Sum(b)
	hash := hex.EncodeToString(b2[:])
	return hash, nil
}
