package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterTokenDB struct {
	CharacterID  int64     `db:"character_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	TokenType    string    `db:"token_type"`
	Scopes       string    `db:"scopes"`
}

type UpdateOrCreateCharacterTokenParams struct {
	CharacterID  int32
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
	Scopes       []string
}

func (st *Storage) UpdateOrCreateCharacterToken(ctx context.Context, arg UpdateOrCreateCharacterTokenParams) error {
	if arg.CharacterID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterToken: %+v: %w", arg, app.ErrInvalid)
	}
	scopes, err := json.Marshal(arg.Scopes)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(
		ctx,
		`INSERT INTO character_tokens (character_id, access_token, refresh_token, expires_at, token_type, scopes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			token_type = excluded.token_type,
			scopes = excluded.scopes`,
		arg.CharacterID, arg.AccessToken, arg.RefreshToken, arg.ExpiresAt, arg.TokenType, string(scopes),
	)
	if err != nil {
		return fmt.Errorf("update or create token for character %d: %w", arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterToken(ctx context.Context, characterID int32) (*app.CharacterToken, error) {
	var o characterTokenDB
	err := st.db.GetContext(ctx, &o, "SELECT * FROM character_tokens WHERE character_id = ?", characterID)
	if err != nil {
		return nil, fmt.Errorf("get token for character %d: %w", characterID, convertGetError(err))
	}
	var scopes []string
	if err := json.Unmarshal([]byte(o.Scopes), &scopes); err != nil {
		return nil, fmt.Errorf("get token for character %d: decode scopes: %w", characterID, err)
	}
	return &app.CharacterToken{
		CharacterID:  int32(o.CharacterID),
		AccessToken:  o.AccessToken,
		RefreshToken: o.RefreshToken,
		ExpiresAt:    o.ExpiresAt,
		TokenType:    o.TokenType,
		Scopes:       scopes,
	}, nil
}
