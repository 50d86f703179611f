package query

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON string, number or bool as text. null, objects
// and arrays become "".
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	*f = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err == nil {
			*f = FlexString(strconv.FormatBool(v))
		}
	case 'n', '{', '[':
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

// Truthy decodes any JSON value by JavaScript truthiness: false, 0, "" and
// null are false, everything else is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(b []byte) error {
	*t = false
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case 'n', 'f':
	case 't', '{', '[':
		*t = true
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = s != ""
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*t = n != 0
	}
	return nil
}
