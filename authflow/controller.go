// Package authflow drives the two legs of an OAuth2
// Authorization-Code-with-PKCE exchange against the identity provider
// and hands the decoded post-login intent back to the caller.
//
// The flow is a small state machine per attempt:
//
//	Idle -> RedirectIssued -> CallbackReceived -> {Authenticated | Rejected}
//
// Begin moves Idle -> RedirectIssued and returns the provider URL plus
// the per-attempt FlowState the caller must persist in the user's
// session. Callback consumes that FlowState; any CSRF or provider error
// rejects the attempt before a token exchange is attempted.
package authflow

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
)

const challengeMethodS256 = "S256"

// ProviderConfig is the immutable per-process identity-provider
// configuration. Multiple controllers with independent configurations
// are constructible, which the tests rely on.
type ProviderConfig struct {
	ClientID      string
	ClientSecret  string
	CloudInstance string // e.g. "https://login.microsoftonline.com"
	TenantID      string // directory tenant or "organizations"
	RedirectURI   string

	// Endpoint overrides the derived AzureAD endpoint when set.
	Endpoint oauth2.Endpoint
}

func (c ProviderConfig) endpoint() oauth2.Endpoint {
	if c.Endpoint.AuthURL != "" || c.Endpoint.TokenURL != "" {
		return c.Endpoint
	}
	return microsoft.AzureADEndpoint(c.TenantID)
}

// Controller implements the redirect/callback legs of the flow.
type Controller struct {
	config ProviderConfig
}

func New(config ProviderConfig) (*Controller, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("[authflow New] client id is required")
	}
	if config.RedirectURI == "" {
		return nil, fmt.Errorf("[authflow New] redirect URI is required")
	}
	return &Controller{config: config}, nil
}

// BeginOptions describes one start-flow request.
type BeginOptions struct {
	RedirectTo   string
	Scopes       []string
	Intent       string
	IntentParams map[string]string
}

// FlowState is the server-side half of one redirect attempt. It is
// written once at Begin and consumed at Callback; the PKCE verifier is
// never sent to the provider.
type FlowState struct {
	CSRFToken       string
	PKCEVerifier    string
	PKCEChallenge   string
	ChallengeMethod string
	Intent          string
	IntentParams    map[string]string
	RedirectTo      string
}

// Begin generates fresh CSRF and PKCE material, packs the caller's
// intent into the state blob and returns the provider authorize URL
// together with the FlowState to persist before issuing the redirect.
func (c *Controller) Begin(opts BeginOptions) (string, *FlowState, error) {
	intent := opts.Intent
	if intent == "" {
		intent = IntentNone
	}

	flow := &FlowState{
		CSRFToken:       uuid.New().String(),
		PKCEVerifier:    generateRandomString(32),
		ChallengeMethod: challengeMethodS256,
		Intent:          intent,
		IntentParams:    opts.IntentParams,
		RedirectTo:      opts.RedirectTo,
	}
	flow.PKCEChallenge = generateCodeChallenge(flow.PKCEVerifier)

	state := State{
		CSRFToken:    flow.CSRFToken,
		RedirectTo:   opts.RedirectTo,
		Intent:       intent,
		IntentParams: opts.IntentParams,
	}
	encodedState, err := state.Encode()
	if err != nil {
		return "", nil, err
	}

	oauthConfig := c.oauthConfig(opts.Scopes)
	authURL := oauthConfig.AuthCodeURL(encodedState,
		oauth2.SetAuthURLParam("response_mode", "form_post"),
		oauth2.SetAuthURLParam("code_challenge", flow.PKCEChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", flow.ChallengeMethod),
	)
	return authURL, flow, nil
}

// CallbackInput carries the provider's form_post callback fields.
type CallbackInput struct {
	State            string
	Code             string
	ErrorParam       string
	ErrorDescription string
}

// Account holds the identity claims extracted from the ID token.
type Account struct {
	TenantID    string // tid claim
	ClientAppID string // aud claim: the caller application's client id
	Username    string
	Name        string
}

// TokenResult is the outcome of a successful code exchange.
type TokenResult struct {
	AccessToken string
	IDToken     string
	Account     Account
}

// Callback verifies the provider callback against the stored FlowState
// and exchanges the authorization code for tokens.
//
// It fails closed: a provider error, missing state, or CSRF mismatch
// rejects the attempt before any token exchange. The CSRF token is
// single-use and is cleared from the FlowState on comparison.
func (c *Controller) Callback(ctx context.Context, flow *FlowState, input CallbackInput) (*State, *TokenResult, error) {
	if input.ErrorParam != "" {
		return nil, nil, fmt.Errorf("authorization failed: %s - %s", input.ErrorParam, input.ErrorDescription)
	}

	state, err := DecodeState(input.State)
	if err != nil {
		return nil, nil, err
	}

	if flow == nil || flow.CSRFToken == "" {
		return nil, nil, errors.ErrCSRFMismatch
	}
	storedToken := flow.CSRFToken
	flow.CSRFToken = "" // consumed, match or not
	if state.CSRFToken != storedToken {
		return nil, nil, errors.ErrCSRFMismatch
	}

	oauthConfig := c.oauthConfig(nil)
	oauth2Token, err := oauthConfig.Exchange(ctx, input.Code,
		oauth2.SetAuthURLParam("code_verifier", flow.PKCEVerifier),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("[authflow Callback] token exchange: %w", err)
	}

	result := &TokenResult{AccessToken: oauth2Token.AccessToken}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, nil, fmt.Errorf("[authflow Callback] no ID token in response")
	}
	result.IDToken = rawIDToken

	account, err := accountFromIDToken(rawIDToken)
	if err != nil {
		return nil, nil, err
	}
	result.Account = account

	return state, result, nil
}

// accountFromIDToken extracts identity claims from the raw ID token.
// The token arrived over TLS directly from the token endpoint in the
// same round trip, so its signature is not re-verified here.
func accountFromIDToken(rawIDToken string) (Account, error) {
	var claims struct {
		TenantID string `json:"tid"`
		Audience string `json:"aud"`
		Username string `json:"preferred_username"`
		Name     string `json:"name"`
		jwt.RegisteredClaims
	}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawIDToken, &claims); err != nil {
		return Account{}, fmt.Errorf("[authflow accountFromIDToken] parse ID token: %w", err)
	}
	return Account{
		TenantID:    claims.TenantID,
		ClientAppID: claims.Audience,
		Username:    claims.Username,
		Name:        claims.Name,
	}, nil
}

func (c *Controller) oauthConfig(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		Endpoint:     c.config.endpoint(),
		RedirectURL:  c.config.RedirectURI,
		Scopes:       scopes,
	}
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// generateCodeChallenge creates a PKCE code challenge from a verifier
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
