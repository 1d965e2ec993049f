package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Cell is one spreadsheet value. The sheet API may send a string, number,
// bool or null for any column; objects and arrays are kept as unusable and
// treated as missing.
type Cell struct {
	Value    string
	Present  bool
	Unusable bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*c = Cell{}
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case 'n':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		c.Value, c.Present = s, true
	case '{', '[':
		c.Unusable = true
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		c.Value, c.Present = strconv.FormatBool(v), true
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		c.Value, c.Present = n.String(), true
	}
	return nil
}

// Text returns the trimmed value, or def when the cell is missing, unusable
// or blank.
func (c Cell) Text(def string) string {
	if !c.Present {
		return def
	}
	if v := strings.TrimSpace(c.Value); v != "" {
		return v
	}
	return def
}

// RawProduct is one row as sent by the sheet API.
type RawProduct struct {
	ID          Cell `json:"id"`
	Name        Cell `json:"name"`
	ImageURL    Cell `json:"imageURL"`
	Price       Cell `json:"price"`
	Description Cell `json:"description"`
	Stock       Cell `json:"stock"`
	Size        Cell `json:"size"`
	Colors      Cell `json:"colors"`
}
