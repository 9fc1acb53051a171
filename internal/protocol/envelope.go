package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/sitewright/previewd/internal/types"
)

// Prefix namespaces every UTP message type
const Prefix = "UTP/"

// Message types, host -> preview
const (
	TypeHostInit     = Prefix + "HOST_INIT"
	TypeNavCommit    = Prefix + "NAV_COMMIT"
	TypeIntentAck    = Prefix + "INTENT_ACK"
	TypeIntentResult = Prefix + "INTENT_RESULT"
	TypeOverlayOpen  = Prefix + "OVERLAY_OPEN"
	TypeOverlayClose = Prefix + "OVERLAY_CLOSE"
	TypeStatePatch   = Prefix + "STATE_PATCH"
)

// Message types, preview -> host
const (
	TypePreviewReady  = Prefix + "PREVIEW_READY"
	TypeNavRequest    = Prefix + "NAV_REQUEST"
	TypeIntentExecute = Prefix + "INTENT_EXECUTE"
	TypeLogEvent      = Prefix + "LOG_EVENT"
)

// Message types, either direction
const (
	TypeError         = Prefix + "ERROR"
	TypeProtocolError = Prefix + "PROTOCOL_ERROR"
)

// Protocol error codes
const (
	CodeNavNotFound   = "NAV_NOT_FOUND"
	CodePageNotFound  = "PAGE_NOT_FOUND"
	CodeProtocolError = "PROTOCOL_ERROR"
)

// ErrNotUTP marks inbound frames outside the UTP namespace. Such frames
// are dropped silently, without even a log line.
var ErrNotUTP = errors.New("message type is not UTP-prefixed")

// Envelope is the wire form of every UTP message
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New builds an envelope around a payload
func New(msgType string, payload interface{}) (Envelope, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// Encode serializes an envelope for the wire
func (e Envelope) Encode() ([]byte, error) {
	data, err := sonic.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses an inbound frame and enforces the UTP namespace
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if !strings.HasPrefix(env.Type, Prefix) {
		return Envelope{}, ErrNotUTP
	}
	return env, nil
}

// DecodePayload unmarshals an envelope payload into a typed struct
func DecodePayload(env Envelope, out interface{}) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", env.Type)
	}
	if err := sonic.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", env.Type, err)
	}
	return nil
}

// Name strips the UTP prefix for logging and metrics labels
func (e Envelope) Name() string {
	return strings.TrimPrefix(e.Type, Prefix)
}

// HostInit is sent once after the preview transport is established
type HostInit struct {
	Engine        types.Engine                      `json:"engine"`
	EntryPageID   string                            `json:"entry_page_id"`
	Manifest      types.Manifest                    `json:"manifest"`
	Entitlements  types.Entitlements                `json:"entitlements"`
	ClientIntents map[string]types.IntentDefinition `json:"client_intents"`
}

// PreviewReady reports the preview runtime's realized capabilities
type PreviewReady struct {
	Capabilities map[string]bool `json:"capabilities"`
}

// NavRequest asks the host to navigate the preview
type NavRequest struct {
	To string `json:"to"`
}

// RenderPayload carries everything the preview needs to paint a page
type RenderPayload struct {
	HTML      string            `json:"html"`
	CSS       string            `json:"css,omitempty"`
	JS        string            `json:"js,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// NavCommit confirms a navigation and delivers the page render
type NavCommit struct {
	To     string        `json:"to"`
	PageID string        `json:"page_id"`
	Render RenderPayload `json:"render"`
}

// IntentExecute asks the host to run a declared intent
type IntentExecute struct {
	IntentID  string                 `json:"intent_id"`
	Params    map[string]interface{} `json:"params"`
	BindingID string                 `json:"binding_id,omitempty"`
}

// IntentAck confirms receipt of an intent request before execution
type IntentAck struct {
	IntentID  string `json:"intent_id"`
	RequestID string `json:"request_id"`
}

// IntentResult delivers the outcome of an intent execution
type IntentResult struct {
	IntentID      string                 `json:"intent_id"`
	RequestID     string                 `json:"request_id"`
	OK            bool                   `json:"ok"`
	ClientActions []types.ClientAction   `json:"client_actions"`
	Result        map[string]interface{} `json:"result"`
	Error         *types.IntentError     `json:"error,omitempty"`
}

// Overlay opens or closes a preview overlay, fire and forget
type Overlay struct {
	OverlayID string                 `json:"overlay_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// PatchOp mutates one key of the preview's client state
type PatchOp struct {
	Op    string      `json:"op"` // set, merge, delete
	Key   string      `json:"key"`
	Value interface{} `json:"value,omitempty"`
}

// StatePatch syncs client state, fire and forget
type StatePatch struct {
	Ops []PatchOp `json:"ops"`
}

// LogEvent forwards a preview-side log line to the host
type LogEvent struct {
	Level string                 `json:"level"`
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// ErrorPayload reports a protocol-level failure
type ErrorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
