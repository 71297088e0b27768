// Package sso refreshes Eve Online SSO tokens.
// Initial authorization happens elsewhere, this service only keeps
// previously granted tokens alive.
package sso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ssoHost         = "login.eveonline.com"
	tokenURLDefault = "https://login.eveonline.com/v2/oauth/token"
)

var (
	ErrTokenError          = errors.New("token error")
	ErrMissingRefreshToken = errors.New("missing refresh token")
)

// Token is a refreshed SSO token pair.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type tokenPayload struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
}

func (t tokenPayload) expiresAt() time.Time {
	return time.Now().UTC().Add(time.Second * time.Duration(t.ExpiresIn))
}

// SSOService refreshes tokens with the Eve Online SSO API.
type SSOService struct {
	clientID   string
	httpClient *http.Client
	tokenURL   string
}

func New(httpClient *http.Client, clientID string) *SSOService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	s := &SSOService{
		clientID:   clientID,
		httpClient: httpClient,
		tokenURL:   tokenURLDefault,
	}
	return s
}

// RefreshToken exchanges a refresh token for a new token pair.
func (s *SSOService) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	raw, err := s.fetchRefreshedToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	token := &Token{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		ExpiresAt:    raw.expiresAt(),
	}
	return token, nil
}

func (s *SSOService) fetchRefreshedToken(ctx context.Context, refreshToken string) (*tokenPayload, error) {
	form := url.Values{
		"client_id":     {s.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Host", ssoHost)
	slog.Debug("Requesting token from SSO API", "grant_type", "refresh_token", "url", s.tokenURL)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	token := tokenPayload{}
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	if token.Error != "" {
		return nil, fmt.Errorf("refresh token: %s, %s: %w", token.Error, token.ErrorDescription, ErrTokenError)
	}
	return &token, nil
}
