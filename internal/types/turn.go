package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Turn is one conversation turn. Content is a union on the wire: user turns
// carry text, assistant turns carry either text or a structured result. The
// union is represented as an explicit tag here (Result == nil means text)
// so downstream rendering never inspects raw JSON shapes.
type Turn struct {
	Role   string
	Text   string
	Result *TurnResult
}

// TurnResult is the structured payload of an assistant turn that completed
// an earlier query in the conversation
type TurnResult struct {
	SQLQuery string
	Rows     []map[string]any
}

// Role constants for conversation turns
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type turnWire struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type resultWire struct {
	SQLQuery string           `json:"sql_query,omitempty"`
	Rows     []map[string]any `json:"rows,omitempty"`
	Result   []map[string]any `json:"result,omitempty"`
}

// UnmarshalJSON decodes the wire union into the tagged representation
func (t *Turn) UnmarshalJSON(data []byte) error {
	var wire turnWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	t.Role = wire.Role
	t.Text = ""
	t.Result = nil

	if len(wire.Content) == 0 {
		return nil
	}

	var text string
	if err := json.Unmarshal(wire.Content, &text); err == nil {
		t.Text = text
		return nil
	}

	var result resultWire
	if err := json.Unmarshal(wire.Content, &result); err != nil {
		return fmt.Errorf("turn content must be a string or a result object: %w", err)
	}

	rows := result.Rows
	if rows == nil {
		rows = result.Result
	}

	t.Result = &TurnResult{SQLQuery: result.SQLQuery, Rows: rows}

	return nil
}

// MarshalJSON re-encodes the tagged representation back into the wire union
func (t Turn) MarshalJSON() ([]byte, error) {
	wire := turnWire{Role: t.Role}

	var (
		content []byte
		err     error
	)

	if t.Result != nil {
		content, err = json.Marshal(resultWire{SQLQuery: t.Result.SQLQuery, Rows: t.Result.Rows})
	} else {
		content, err = json.Marshal(t.Text)
	}

	if err != nil {
		return nil, err
	}

	wire.Content = content

	return json.Marshal(wire)
}

// IsUserText reports whether the turn is a user turn with non-empty text
func (t Turn) IsUserText() bool {
	return t.Role == RoleUser && t.Result == nil && strings.TrimSpace(t.Text) != ""
}

// HasRows reports whether the turn carries a structured result with rows
func (t Turn) HasRows() bool {
	return t.Result != nil && len(t.Result.Rows) > 0
}
