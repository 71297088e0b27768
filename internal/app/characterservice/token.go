package characterservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
)

// GetValidCharacterToken returns a valid token for a character.
// Will automatically try to refresh a token if needed.
func (s *CharacterService) GetValidCharacterToken(ctx context.Context, characterID int32) (*app.CharacterToken, error) {
	x, err, _ := s.sfg.Do(fmt.Sprintf("valid-character-token-%d", characterID), func() (any, error) {
		t, err := s.st.GetCharacterToken(ctx, characterID)
		if err != nil {
			return nil, err
		}
		if err := s.ensureValidCharacterToken(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return x.(*app.CharacterToken), nil
}

// TokenForCharacter returns a valid access token for a character.
// It exists to plug the character service into collaborators that only
// need the raw token.
func (s *CharacterService) TokenForCharacter(ctx context.Context, characterID int32) (string, error) {
	t, err := s.GetValidCharacterToken(ctx, characterID)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// ensureValidCharacterToken refreshes a token that is already or about to
// become invalid and persists the new pair. The token is updated in place.
func (s *CharacterService) ensureValidCharacterToken(ctx context.Context, t *app.CharacterToken) error {
	if t.RemainsValid(time.Second * 60) {
		return nil
	}
	slog.Debug("Need to refresh token", "characterID", t.CharacterID)
	rawToken, err := s.sso.RefreshToken(ctx, t.RefreshToken)
	if err != nil {
		return err
	}
	t.AccessToken = rawToken.AccessToken
	t.RefreshToken = rawToken.RefreshToken
	t.ExpiresAt = rawToken.ExpiresAt
	err = s.st.UpdateOrCreateCharacterToken(ctx, storage.UpdateOrCreateCharacterTokenParams{
		AccessToken:  t.AccessToken,
		CharacterID:  t.CharacterID,
		ExpiresAt:    t.ExpiresAt,
		RefreshToken: t.RefreshToken,
		Scopes:       t.Scopes,
		TokenType:    t.TokenType,
	})
	if err != nil {
		return err
	}
	slog.Info("Token refreshed", "characterID", t.CharacterID)
	return nil
}
