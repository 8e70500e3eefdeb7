// Package protocol defines the websocket chat payloads exchanged with
// clients. Every frame is a JSON object carrying a "type" discriminator.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/parkpro/assistant/internal/dialogue"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatTurn   MessageType = "chat_turn"
	TypeChatResult MessageType = "chat_result"
	TypeErrorEvent MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatTurn is one user utterance sent by the client.
type ChatTurn struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	AuthToken string      `json:"auth_token,omitempty"`
}

// ChatResult is the engine's structured reply to one ChatTurn.
type ChatResult struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id"`
	Result    dialogue.Result `json:"result"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatTurn:
		var msg ChatTurn
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.SessionID) == "" || strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid chat_turn: session_id and text are required")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
