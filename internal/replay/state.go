package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidState marks advance payloads that fail validation. Nothing is
// persisted for them.
var ErrInvalidState = errors.New("invalid replay state")

// StateUpdate is the full mutable-state snapshot a client submits when
// advancing a session. The trade log is replaced wholesale on every call.
type StateUpdate struct {
	CurrentCandleIndex int             `json:"current_candle_index"`
	CurrentBalance     float64         `json:"current_balance"`
	PositionQuantity   float64         `json:"position_quantity"`
	PositionAvgPrice   float64         `json:"position_avg_price"`
	Trades             json.RawMessage `json:"trades"`
	Timeframe          string          `json:"timeframe,omitempty"`
}

// Unknown fields are rejected rather than silently dropped: every mutable
// field of a session is enumerated here.
const stateSchemaJSON = `{
	"type": "object",
	"required": ["current_candle_index", "current_balance", "position_quantity", "position_avg_price", "trades"],
	"additionalProperties": false,
	"properties": {
		"current_candle_index": {"type": "integer", "minimum": 0},
		"current_balance": {"type": "number"},
		"position_quantity": {"type": "number"},
		"position_avg_price": {"type": "number", "minimum": 0},
		"trades": {"type": "array"},
		"timeframe": {"type": "string", "minLength": 1}
	}
}`

var stateSchema = jsonschema.MustCompileString("state_update.json", stateSchemaJSON)

// ParseStateUpdate validates the raw advance body against the schema and
// decodes it. All schema failures map to ErrInvalidState.
func ParseStateUpdate(raw []byte) (StateUpdate, error) {
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return StateUpdate{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := stateSchema.Validate(generic); err != nil {
		return StateUpdate{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	var upd StateUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		return StateUpdate{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if upd.Trades == nil {
		upd.Trades = json.RawMessage("[]")
	}
	return upd, nil
}
