package sso

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

func TestRefreshToken(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	s := New(nil, "client-id-1")
	t.Run("can refresh a token", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.RegisterResponder("POST", tokenURLDefault,
			httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"expires_in":    1199,
				"token_type":    "Bearer",
			}),
		)
		// when
		token, err := s.RefreshToken(ctx, "refresh-1")
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "access-2", token.AccessToken)
			assert.Equal(t, "refresh-2", token.RefreshToken)
			assert.False(t, token.ExpiresAt.IsZero())
		}
	})
	t.Run("should return error when the SSO reports one", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.RegisterResponder("POST", tokenURLDefault,
			httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
				"error":             "invalid_grant",
				"error_description": "Invalid refresh token",
			}),
		)
		// when
		_, err := s.RefreshToken(ctx, "refresh-1")
		// then
		assert.ErrorIs(t, err, ErrTokenError)
	})
	t.Run("should return error when refresh token is missing", func(t *testing.T) {
		// when
		_, err := s.RefreshToken(ctx, "")
		// then
		assert.ErrorIs(t, err, ErrMissingRefreshToken)
	})
}
