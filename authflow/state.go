package authflow

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
)

// Post-login intents dispatched after a successful token exchange.
const (
	IntentNone            = "none"
	IntentCreateDaemonApp = "create-daemon-app"
	IntentAssignRole      = "assign-role"
)

// State is the opaque blob carried through the provider redirect. It is
// encoded, not encrypted: its confidentiality is not assumed, only its
// round-trip fidelity and the CSRF binding to the initiating session.
type State struct {
	CSRFToken    string            `json:"csrfToken"`
	RedirectTo   string            `json:"redirectTo"`
	Intent       string            `json:"intent"`
	IntentParams map[string]string `json:"intentParams,omitempty"`
}

// Encode serialises the state as URL-safe base64 JSON.
func (s State) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("[authflow State.Encode] marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeState reverses Encode. An empty value is ErrStateMissing.
func DecodeState(encoded string) (*State, error) {
	if encoded == "" {
		return nil, errors.ErrStateMissing
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("[authflow DecodeState] decode state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("[authflow DecodeState] unmarshal state: %w", err)
	}
	return &s, nil
}
