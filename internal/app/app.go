// Package app contains the domain model shared by all services.
package app

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an object does not exist in storage.
	ErrNotFound = errors.New("object not found")
	// ErrInvalid is returned when a request is malformed.
	ErrInvalid = errors.New("invalid request")
	// ErrTokenScope is returned when a token lacks the scope required for an operation.
	ErrTokenScope = errors.New("token missing required scope")
)

// A Character is a tracked character. Characters are registered by an
// external collaborator and never created by the sync core itself.
type Character struct {
	ID        int32
	Name      string
	CreatedAt time.Time
	IsVisible bool
}

// A CharacterToken is the SSO token of a character.
// Tokens are written by the registration collaborator and refreshed in place here.
type CharacterToken struct {
	CharacterID  int32
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
	Scopes       []string
}

// RemainsValid reports whether a token remains valid within a duration.
func (ct CharacterToken) RemainsValid(d time.Duration) bool {
	return ct.ExpiresAt.After(time.Now().Add(d))
}

// HasScopes reports whether a token has all given scopes.
func (ct CharacterToken) HasScopes(scopes ...string) bool {
	for _, want := range scopes {
		found := false
		for _, s := range ct.Scopes {
			if s == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
