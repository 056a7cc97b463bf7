package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// User is the cached snapshot of the authenticated account, as returned by
// the backend's auth endpoints. It is a display hint for the UI and an input
// to the edge auth gate; the backend independently authorizes every proxied
// call, so nothing here is a security boundary on its own.
type User struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	IsAdmin Flag    `json:"is_admin"`
	Balance float64 `json:"balance,omitempty"`
}

// Flag is a boolean that tolerates the backend's loose encodings: Laravel
// serialises tinyint columns as 0/1 and occasionally as "0"/"1" strings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("1")):
		*f = true
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("0")), bytes.Equal(data, []byte("null")):
		*f = false
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			// Unknown shape: fail closed rather than erroring the whole parse.
			*f = false
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			*f = false
			return nil
		}
		*f = Flag(b)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}
