package characterservice

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

const ssoTokenURL = "https://login.eveonline.com/v2/oauth/token"

func TestGetValidCharacterToken(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := NewTestService(st)
	ctx := context.Background()
	t.Run("should return token unchanged when still valid", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken()
		// when
		x, err := s.GetValidCharacterToken(ctx, token.CharacterID)
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.Equal(t, token.AccessToken, x.AccessToken)
		}
	})
	t.Run("should refresh and persist an expired token", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken(storage.UpdateOrCreateCharacterTokenParams{
			ExpiresAt: time.Now().Add(-time.Hour).UTC(),
		})
		httpmock.RegisterResponder("POST", ssoTokenURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"access_token":  "access-new",
				"refresh_token": "refresh-new",
				"expires_in":    1199,
				"token_type":    "Bearer",
			}),
		)
		// when
		x, err := s.GetValidCharacterToken(ctx, token.CharacterID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "access-new", x.AccessToken)
			assert.True(t, x.RemainsValid(time.Minute))
			y, err := st.GetCharacterToken(ctx, token.CharacterID)
			if assert.NoError(t, err) {
				assert.Equal(t, "access-new", y.AccessToken)
				assert.Equal(t, "refresh-new", y.RefreshToken)
				assert.Equal(t, token.Scopes, y.Scopes)
			}
		}
	})
	t.Run("should return error when refresh fails", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken(storage.UpdateOrCreateCharacterTokenParams{
			ExpiresAt: time.Now().Add(-time.Hour).UTC(),
		})
		httpmock.RegisterResponder("POST", ssoTokenURL,
			httpmock.NewJsonResponderOrPanic(400, map[string]any{
				"error":             "invalid_grant",
				"error_description": "Invalid refresh token",
			}),
		)
		// when
		_, err := s.GetValidCharacterToken(ctx, token.CharacterID)
		// then
		assert.Error(t, err)
	})
}
