package items

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Tradeable is the boolean-like tradeable flag. Boolean values are
// normalized to "true"/"false", anything else is kept verbatim.
type Tradeable string

const (
	TradeableTrue    Tradeable = "true"
	TradeableFalse   Tradeable = "false"
	TradeableUnknown Tradeable = "unknown"
)

// ParseTradeable recognizes the same boolean spellings as the wiki export:
// true, True, TRUE and their false counterparts.
func ParseTradeable(raw string) Tradeable {
	switch raw {
	case "true", "True", "TRUE":
		return TradeableTrue
	case "false", "False", "FALSE":
		return TradeableFalse
	}
	return Tradeable(raw)
}

func (t Tradeable) IsFalse() bool {
	return t == TradeableFalse
}

func (t Tradeable) MarshalJSON() ([]byte, error) {
	switch t {
	case TradeableTrue:
		return []byte("true"), nil
	case TradeableFalse:
		return []byte("false"), nil
	}
	return json.Marshal(string(t))
}

func (t *Tradeable) UnmarshalJSON(data []byte) error {
	var v any
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case bool:
		*t = Tradeable(strconv.FormatBool(v))
	case string:
		*t = ParseTradeable(v)
	case nil:
		*t = TradeableUnknown
	default:
		return fmt.Errorf("unexpected tradeable value %s", string(data))
	}
	return nil
}
