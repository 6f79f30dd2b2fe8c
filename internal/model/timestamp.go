package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp decodes the mixed timestamp encodings the TapSwap API uses:
// integer epoch milliseconds, or a Mongo extended-JSON wrapper of the form
// {"$numberDecimal": "<milliseconds>"}. Null decodes to the zero value,
// which marks the field as absent. Any other shape is a decode error.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '{' {
		var wrapper struct {
			NumberDecimal string `json:"$numberDecimal"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("timestamp: decoding wrapper object: %w", err)
		}
		if wrapper.NumberDecimal == "" {
			return fmt.Errorf("timestamp: object without $numberDecimal: %s", data)
		}
		ms, err := strconv.ParseFloat(wrapper.NumberDecimal, 64)
		if err != nil {
			return fmt.Errorf("timestamp: non-numeric $numberDecimal %q", wrapper.NumberDecimal)
		}
		t.Time = time.UnixMilli(int64(ms))
		return nil
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp: unsupported shape %s", data)
	}
	t.Time = time.UnixMilli(ms)
	return nil
}

// MarshalJSON implements json.Marshaler, emitting epoch milliseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}
